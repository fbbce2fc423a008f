package utils

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"unicode/utf16"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

var nameHeaderAliases = []string{"name", "full name", "participant", "participant name", "fullname"}
var emailHeaderAliases = []string{"email", "e-mail", "mail", "email address"}

type ParticipantRow struct {
	Name  string
	Email string
}

// DecodeUploadBytes strips a UTF-8 BOM and converts UTF-16 payloads
// (detected by their BOM) to UTF-8. Spreadsheet exports routinely carry
// either.
func DecodeUploadBytes(b []byte) []byte {
	switch {
	case bytes.HasPrefix(b, []byte{0xEF, 0xBB, 0xBF}):
		return b[3:]
	case bytes.HasPrefix(b, []byte{0xFF, 0xFE}):
		return utf16Bytes(b[2:], false)
	case bytes.HasPrefix(b, []byte{0xFE, 0xFF}):
		return utf16Bytes(b[2:], true)
	}
	return b
}

func utf16Bytes(b []byte, bigEndian bool) []byte {
	if len(b)%2 == 1 {
		b = b[:len(b)-1]
	}
	u := make([]uint16, 0, len(b)/2)
	for i := 0; i+1 < len(b); i += 2 {
		if bigEndian {
			u = append(u, uint16(b[i])<<8|uint16(b[i+1]))
		} else {
			u = append(u, uint16(b[i+1])<<8|uint16(b[i]))
		}
	}
	return []byte(string(utf16.Decode(u)))
}

func findColumn(header []string, aliases []string) int {
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(h))
		for _, a := range aliases {
			if h == a {
				return i
			}
		}
	}
	return -1
}

type CSVParseResult struct {
	Rows       []ParticipantRow
	Errors     []string
	Duplicates int
}

// ParseParticipantsCSV reads uploaded CSV content into rows, collecting a
// message per rejected row instead of aborting the file. Duplicate emails
// within the file are dropped and counted separately.
func ParseParticipantsCSV(data []byte) (*CSVParseResult, error) {
	reader := csv.NewReader(bytes.NewReader(DecodeUploadBytes(data)))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("could not read CSV header: %w", err)
	}
	nameCol := findColumn(header, nameHeaderAliases)
	emailCol := findColumn(header, emailHeaderAliases)
	if nameCol < 0 || emailCol < 0 {
		return nil, fmt.Errorf("CSV must contain name and email columns, got: %s", strings.Join(header, ", "))
	}

	result := &CSVParseResult{}
	seen := map[string]bool{}
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %s", line, err.Error()))
			continue
		}
		if nameCol >= len(record) || emailCol >= len(record) {
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: missing columns", line))
			continue
		}
		name := strings.TrimSpace(record[nameCol])
		email := strings.ToLower(strings.TrimSpace(record[emailCol]))
		if name == "" {
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: missing name", line))
			continue
		}
		if email == "" {
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: missing email", line))
			continue
		}
		if err := validate.Var(email, "email"); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: invalid email %q", line, email))
			continue
		}
		if seen[email] {
			result.Duplicates++
			continue
		}
		seen[email] = true
		result.Rows = append(result.Rows, ParticipantRow{Name: name, Email: email})
	}
	return result, nil
}
