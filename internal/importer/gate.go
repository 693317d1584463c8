package importer

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Only OOXML spreadsheets are accepted. The gate runs entirely
// client-side: a rejected file never reaches the network.
const (
	spreadsheetExt  = ".xlsx"
	spreadsheetMIME = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// zipMagic is the OOXML container signature; .xlsx files are zip archives.
var zipMagic = []byte{0x50, 0x4b, 0x03, 0x04}

var (
	ErrNotSpreadsheet = errors.New("only .xlsx spreadsheet files are accepted")
	ErrFileTooSmall   = errors.New("file is too small to be a spreadsheet")
	ErrFileTooLarge   = errors.New("file exceeds the maximum upload size")
)

// Gate enforces the upload constraints: exactly one spreadsheet file
// within the configured size bounds.
type Gate struct {
	MinBytes int64
	MaxBytes int64
}

// Check validates a file name and content against the gate. The returned
// error is user-facing.
func (g Gate) Check(fileName string, content []byte) error {
	if !strings.EqualFold(filepath.Ext(fileName), spreadsheetExt) {
		return fmt.Errorf("%w (got %q)", ErrNotSpreadsheet, filepath.Ext(fileName))
	}
	if !bytes.HasPrefix(content, zipMagic) {
		return ErrNotSpreadsheet
	}
	if int64(len(content)) < g.MinBytes {
		return fmt.Errorf("%w (minimum %d bytes)", ErrFileTooSmall, g.MinBytes)
	}
	if int64(len(content)) > g.MaxBytes {
		return fmt.Errorf("%w (maximum %d bytes)", ErrFileTooLarge, g.MaxBytes)
	}
	return nil
}
