package dsv

import (
	"bytes"
	stdcsv "encoding/csv"
	"io"
	"strconv"
	"strings"
	"testing"
)

// benchmarkTSV builds ragged tab separated rows with blank lines, literal
// quotes and quoted cells holding tabs and newlines.
func benchmarkTSV() []byte {
	var b strings.Builder
	b.WriteString("id\tname\tdescription\tsize\tnotes\n")
	for i := 0; i < 2000; i++ {
		id := strconv.Itoa(i)
		switch i % 5 {
		case 0:
			b.WriteString(id + "\tmonitor\t27\" panel, matte\t" + strings.Repeat("x", i%40) + "\n")
		case 1:
			b.WriteString(id + "\tcable\t\"braided\tnylon\"\t2m\t\"two\nlines\"\n")
		case 2:
			b.WriteString(id + "\n\n")
		case 3:
			b.WriteString(id + "\tdesk\t" + strings.Repeat("wood ", 12) + "\t160cm\tin stock\textra\n")
		default:
			b.WriteString(id + "\t\t\t\t\n")
		}
	}
	return []byte(b.String())
}

// BenchmarkReaderTwoPass reads the data the way a streamed row source does:
// a first pass with reused records, a rewind, and a second pass.
func BenchmarkReaderTwoPass(b *testing.B) {
	data := benchmarkTSV()
	b.ReportAllocs()
	b.SetBytes(int64(2 * len(data)))

	for i := 0; i < b.N; i++ {
		src := bytes.NewReader(data)
		r := newTSVReader(src)
		r.ReuseRecord = true
		drainForBench(b, r)

		if _, err := src.Seek(0, io.SeekStart); err != nil {
			b.Fatal(err)
		}
		r.Reset(src)
		r.ReuseRecord = false
		drainForBench(b, r)
	}
}

// BenchmarkReaderScanOnly measures the first pass alone.
func BenchmarkReaderScanOnly(b *testing.B) {
	data := benchmarkTSV()
	b.ReportAllocs()
	b.SetBytes(int64(len(data)))

	for i := 0; i < b.N; i++ {
		r := newTSVReader(bytes.NewReader(data))
		r.ReuseRecord = true
		drainForBench(b, r)
	}
}

func BenchmarkEncodingCSVTwoPass(b *testing.B) {
	data := benchmarkTSV()
	b.ReportAllocs()
	b.SetBytes(int64(2 * len(data)))

	for i := 0; i < b.N; i++ {
		for pass := 0; pass < 2; pass++ {
			cr := stdcsv.NewReader(bytes.NewReader(data))
			cr.Comma = '\t'
			cr.FieldsPerRecord = -1
			cr.LazyQuotes = true
			cr.ReuseRecord = pass == 0

			for {
				if _, err := cr.Read(); err != nil {
					if err == io.EOF {
						break
					}
					b.Fatal(err)
				}
			}
		}
	}
}

func drainForBench(b *testing.B, r *Reader) {
	b.Helper()

	for {
		if _, err := r.Read(); err != nil {
			if err == io.EOF {
				return
			}
			b.Fatal(err)
		}
	}
}
