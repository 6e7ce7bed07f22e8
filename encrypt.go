package pdf

import (
	"fmt"

	"github.com/go-pdf/xref/internal/decrypter"
	"github.com/go-pdf/xref/internal/types"
)

// initEncrypt derives the document's file encryption key from its
// trailer /Encrypt dictionary and installs the resulting Decrypter on
// x, so every subsequent fetch transparently decrypts strings and
// streams. Grounded directly in the teacher's own initEncrypt
// (ScriptRock-pdf/read.go).
func (x *XRef) initEncrypt(password string) error {
	// See PDF 32000-1:2008, §7.6.
	encrypt, _ := x.resolve(nil, x.trailer["Encrypt"]).data.(types.Dict)
	if encrypt["Filter"] != types.Name("Standard") {
		return fmt.Errorf("unsupported PDF: encryption filter %v", encrypt["Filter"])
	}

	ids, ok := x.trailer["ID"].(types.Array)
	if !ok || len(ids) < 1 {
		return fmt.Errorf("malformed PDF: missing ID in trailer")
	}
	id, ok := ids[0].(string)
	if !ok {
		return fmt.Errorf("malformed PDF: missing ID in trailer")
	}

	dec, err := decrypter.New(password, encrypt, id)
	if err != nil {
		return err
	}

	x.decrypter = dec
	return nil
}
