package utils

import (
	"testing"
	"unicode/utf16"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func utf16Payload(s string, bigEndian bool) []byte {
	units := utf16.Encode([]rune(s))
	var out []byte
	if bigEndian {
		out = []byte{0xFE, 0xFF}
	} else {
		out = []byte{0xFF, 0xFE}
	}
	for _, u := range units {
		if bigEndian {
			out = append(out, byte(u>>8), byte(u))
		} else {
			out = append(out, byte(u), byte(u>>8))
		}
	}
	return out
}

func TestDecodeUploadBytes(t *testing.T) {
	content := "name,email\nJane Doe,jane@example.com\n"

	t.Run("plain utf8", func(t *testing.T) {
		assert.Equal(t, []byte(content), DecodeUploadBytes([]byte(content)))
	})
	t.Run("utf8 bom", func(t *testing.T) {
		assert.Equal(t, []byte(content), DecodeUploadBytes(append([]byte{0xEF, 0xBB, 0xBF}, content...)))
	})
	t.Run("utf16 little endian", func(t *testing.T) {
		assert.Equal(t, []byte(content), DecodeUploadBytes(utf16Payload(content, false)))
	})
	t.Run("utf16 big endian", func(t *testing.T) {
		assert.Equal(t, []byte(content), DecodeUploadBytes(utf16Payload(content, true)))
	})
}

func TestParseParticipantsCSVHeaderAliases(t *testing.T) {
	headers := []string{
		"name,email",
		"Full Name,E-mail",
		"Participant,Mail",
		"Participant Name,Email Address",
		"fullname,email",
	}
	for _, header := range headers {
		result, err := ParseParticipantsCSV([]byte(header + "\nJane Doe,jane@example.com\n"))
		require.NoError(t, err, header)
		require.Len(t, result.Rows, 1, header)
		assert.Equal(t, "Jane Doe", result.Rows[0].Name)
		assert.Equal(t, "jane@example.com", result.Rows[0].Email)
	}
}

func TestParseParticipantsCSVMissingColumns(t *testing.T) {
	_, err := ParseParticipantsCSV([]byte("first,last\nJane,Doe\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name and email")
}

func TestParseParticipantsCSVEmptyFile(t *testing.T) {
	_, err := ParseParticipantsCSV([]byte(""))
	require.Error(t, err)
}

func TestParseParticipantsCSVRowErrors(t *testing.T) {
	data := "name,email\n" +
		",missing-name@example.com\n" +
		"Missing Email,\n" +
		"Bad Email,not-an-email\n" +
		"Short Row\n" +
		"Jane Doe,jane@example.com\n"
	result, err := ParseParticipantsCSV([]byte(data))
	require.NoError(t, err)
	require.Len(t, result.Rows, 1)
	require.Len(t, result.Errors, 4)
	assert.Contains(t, result.Errors[0], "row 2")
	assert.Contains(t, result.Errors[1], "row 3")
	assert.Contains(t, result.Errors[2], "not-an-email")
	assert.Contains(t, result.Errors[3], "missing columns")
}

func TestParseParticipantsCSVCountsInFileDuplicates(t *testing.T) {
	data := "name,email\n" +
		"Jane Doe,jane@example.com\n" +
		"Jane Again,JANE@example.com\n" +
		"John Roe,john@example.com\n"
	result, err := ParseParticipantsCSV([]byte(data))
	require.NoError(t, err)
	assert.Len(t, result.Rows, 2)
	assert.Equal(t, 1, result.Duplicates)
	assert.Empty(t, result.Errors)
}

func TestParseParticipantsCSVNormalizesEmail(t *testing.T) {
	result, err := ParseParticipantsCSV([]byte("name,email\nJane Doe,  Jane@Example.COM \n"))
	require.NoError(t, err)
	require.Len(t, result.Rows, 1)
	assert.Equal(t, "jane@example.com", result.Rows[0].Email)
}
