package parsers

import (
	"bufio"
	"encoding/json"
	"io"
)

// WriteDataset persists a dataset's records as NDJSON, one record per line.
// Column order lives with the job row, not in the file.
func WriteDataset(w io.Writer, ds *Dataset) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	for _, rec := range ds.Records {
		if err := enc.Encode(rec); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ReadDataset loads a previously persisted dataset back into memory.
func ReadDataset(r io.Reader, fileName string, columns []string) (*Dataset, error) {
	ds := &Dataset{FileName: fileName, Columns: columns}

	scanner := bufio.NewScanner(r)
	const maxCapacity = 1024 * 1024 // tolerate very wide rows
	scanner.Buffer(make([]byte, maxCapacity), maxCapacity)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, err
		}
		ds.Records = append(ds.Records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return ds, nil
}

// StreamRecords streams persisted records via a channel for callers that do
// not need the whole dataset in memory (the export endpoints). Both channels
// must be consumed to avoid a goroutine leak.
func StreamRecords(r io.Reader) (<-chan Record, <-chan error) {
	records := make(chan Record, 100)
	errs := make(chan error, 1)

	go func() {
		defer close(records)
		defer close(errs)

		scanner := bufio.NewScanner(r)
		const maxCapacity = 1024 * 1024
		scanner.Buffer(make([]byte, maxCapacity), maxCapacity)

		for scanner.Scan() {
			line := scanner.Bytes()
			if len(line) == 0 {
				continue
			}
			var rec Record
			if err := json.Unmarshal(line, &rec); err != nil {
				errs <- err
				continue
			}
			records <- rec
		}
		if err := scanner.Err(); err != nil {
			errs <- err
		}
	}()

	return records, errs
}
