package pdf

import (
	"io"
	"log/slog"
)

// filespecPriority is the key order spec §4.10 names for picking both
// a file specification's display filename and, independently, its
// embedded content: UF (Unicode) before F (PDFDocEncoded) before the
// legacy platform-specific Unix/Mac/DOS keys.
var filespecPriority = [...]string{"UF", "F", "Unix", "Mac", "DOS"}

// FileSpec is the result of resolving a file specification dictionary
// to a displayable name and its embedded bytes.
type FileSpec struct {
	Filename string
	Content  []byte
}

// ParseFileSpec builds a FileSpec from v, a file specification
// dictionary (as found in /Names/EmbeddedFiles or an attachment
// annotation). There is no teacher/example-repo counterpart for file
// specifications; this is grounded directly in spec §4.10.
func ParseFileSpec(v Value) *FileSpec {
	fs := &FileSpec{Filename: "unnamed"}

	for _, key := range filespecPriority {
		if s := v.Key(key); s.Kind() == StringKind {
			fs.Filename = decodeFilespecName(s.Text())
			break
		}
	}

	if v.Key("RF").Kind() != NullKind {
		slog.Warn("file specification: related-file tree /RF is unsupported", slog.String("filename", fs.Filename))
	}

	ef := v.Key("EF")
	if ef.Kind() != DictKind {
		slog.Warn("file specification has no /EF entry; non-embedded specs are unsupported", slog.String("filename", fs.Filename))
		return fs
	}

	for _, key := range filespecPriority {
		stream := ef.Key(key)
		if stream.Kind() != StreamKind {
			continue
		}
		rd := stream.Reader()
		data, err := io.ReadAll(rd)
		rd.Close()
		if err == nil {
			fs.Content = data
		}
		break
	}
	return fs
}

// Serializable returns the {filename, content} pair spec §4.10 names
// as FileSpec's serialization form.
func (fs *FileSpec) Serializable() map[string]any {
	return map[string]any{"filename": fs.Filename, "content": fs.Content}
}

// decodeFilespecName applies the "\\ -> \, \/ -> /, \ -> /" escaping
// rules spec §4.10 specifies for platform filenames, after PDF string
// decoding has already produced s.
func decodeFilespecName(s string) string {
	var out []byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' {
			out = append(out, c)
			continue
		}
		if i+1 < len(s) && (s[i+1] == '\\' || s[i+1] == '/') {
			out = append(out, s[i+1])
			i++
			continue
		}
		out = append(out, '/')
	}
	return string(out)
}
