package llm

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joseph-ayodele/fichas/constants"
)

// ReadAsDataURL base64-encodes the image at path as a data: URL.
// Files larger than maxBytes (when > 0) are refused.
func ReadAsDataURL(path string, maxBytes int64) (string, string, error) {
	if maxBytes > 0 {
		st, err := os.Stat(path)
		if err != nil {
			return "", "", err
		}
		if st.Size() > maxBytes {
			return "", "", fmt.Errorf("image too large for vision request: %d bytes (max %d)", st.Size(), maxBytes)
		}
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", "", err
	}
	mt := constants.MIMEForExt(filepath.Ext(path))
	data := base64.StdEncoding.EncodeToString(b)
	return "data:" + mt + ";base64," + data, mt, nil
}
