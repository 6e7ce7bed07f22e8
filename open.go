package pdf

import "os"

// openFile and fileSize isolate the os.File-specific half of Open so
// the rest of the package only ever depends on the ByteSource
// interface, matching the teacher's Reader.Close pattern of keeping
// file-specific concerns at the edge.
func openFile(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return f, nil
}

func fileSize(f *os.File) (int64, error) {
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return 0, err
	}
	return fi.Size(), nil
}
