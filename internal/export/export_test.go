package export

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/google/go-cmp/cmp"
	"github.com/jszwec/csvutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/reader"

	"github.com/couchcryptid/traffic-weather-etl/internal/domain"
)

func sampleRows() []domain.EnrichedRecord {
	return []domain.EnrichedRecord{
		{Month: domain.Jan, Traffics: 1200, Tavg: -1.5, Snow: 3.25, Prcp: 0.1, Wspd: 12.4, Season: domain.Winter},
		{Month: domain.Jul, Traffics: 2400, Tavg: 26.75, Snow: 0, Prcp: 1.05, Wspd: 8, Season: domain.Summer},
	}
}

type fakeUploader struct {
	inputs []*s3manager.UploadInput
	bodies [][]byte
	err    error
}

func (f *fakeUploader) UploadWithContext(_ aws.Context, input *s3manager.UploadInput, _ ...func(*s3manager.Uploader)) (*s3manager.UploadOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	body, err := io.ReadAll(input.Body)
	if err != nil {
		return nil, err
	}
	f.inputs = append(f.inputs, input)
	f.bodies = append(f.bodies, body)
	return &s3manager.UploadOutput{Location: "https://example.test/" + aws.StringValue(input.Key)}, nil
}

func TestWriteCSV_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleRows()))

	header, _, _ := strings.Cut(buf.String(), "\n")
	assert.Equal(t, "month,traffics,tavg,snow,prcp,wspd,season", header)

	var got []domain.EnrichedRecord
	require.NoError(t, csvutil.Unmarshal(buf.Bytes(), &got))
	if diff := cmp.Diff(sampleRows(), got); diff != "" {
		t.Errorf("csv round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteCSV_EmptyWritesHeader(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))
	assert.Equal(t, "month,traffics,tavg,snow,prcp,wspd,season\n", buf.String())
}

func TestCSVSink_WritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "enriched.csv")
	sink := NewCSVSink(path, nil, slog.Default())
	assert.Equal(t, "csv", sink.Name())

	require.NoError(t, sink.Deliver(context.Background(), sampleRows()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got []domain.EnrichedRecord
	require.NoError(t, csvutil.Unmarshal(data, &got))
	assert.Len(t, got, 2)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files should not be left behind")
}

func TestParquetSink_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "enriched.parquet")
	sink := NewParquetSink(path, nil, slog.Default())
	assert.Equal(t, "parquet", sink.Name())

	require.NoError(t, sink.Deliver(context.Background(), sampleRows()))

	fr, err := local.NewLocalFileReader(path)
	require.NoError(t, err)
	defer fr.Close()

	pr, err := reader.NewParquetReader(fr, new(parquetRow), 1)
	require.NoError(t, err)
	defer pr.ReadStop()

	n := int(pr.GetNumRows())
	require.Equal(t, 2, n)
	got := make([]parquetRow, n)
	require.NoError(t, pr.Read(&got))

	want := []parquetRow{toParquetRow(sampleRows()[0]), toParquetRow(sampleRows()[1])}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("parquet round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestS3Publisher_UploadsExport(t *testing.T) {
	up := &fakeUploader{}
	pub := NewS3Publisher(up, "made-bucket", "exports/2012", slog.Default())
	path := filepath.Join(t.TempDir(), "enriched.csv")
	sink := NewCSVSink(path, pub, slog.Default())

	require.NoError(t, sink.Deliver(context.Background(), sampleRows()))

	require.Len(t, up.inputs, 1)
	in := up.inputs[0]
	assert.Equal(t, "made-bucket", aws.StringValue(in.Bucket))
	assert.Equal(t, "exports/2012/enriched.csv", aws.StringValue(in.Key))
	assert.Equal(t, "text/csv", aws.StringValue(in.ContentType))
	assert.Equal(t, "2", aws.StringValue(in.Metadata["record-count"]))

	written, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, written, up.bodies[0])
}

func TestS3Publisher_KeyWithoutPrefix(t *testing.T) {
	pub := NewS3Publisher(&fakeUploader{}, "b", "", slog.Default())
	assert.Equal(t, "enriched.parquet", pub.Key("/tmp/out/enriched.parquet"))
}

func TestS3Publisher_UploadError(t *testing.T) {
	up := &fakeUploader{err: errors.New("access denied")}
	pub := NewS3Publisher(up, "made-bucket", "", slog.Default())
	path := filepath.Join(t.TempDir(), "enriched.parquet")
	sink := NewParquetSink(path, pub, slog.Default())

	err := sink.Deliver(context.Background(), sampleRows())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upload s3://made-bucket/enriched.parquet")
	assert.Contains(t, err.Error(), "access denied")

	_, statErr := os.Stat(path)
	assert.NoError(t, statErr, "local export is kept when the upload fails")
}
