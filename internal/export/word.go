package export

import (
	"bytes"
	"fmt"
)

// renderWord wraps the rendered HTML in a Word-compatible document shell.
// Word opens HTML-payload documents natively, which keeps the export free of
// a heavyweight OOXML dependency.
func renderWord(htmlBody string) ([]byte, error) {
	var buf bytes.Buffer
	_, err := fmt.Fprintf(&buf, `<html xmlns:o="urn:schemas-microsoft-com:office:office"
	xmlns:w="urn:schemas-microsoft-com:office:word">
<head>
<meta charset="utf-8">
<style>
body { font-family: Calibri, sans-serif; font-size: 11pt; }
table { border-collapse: collapse; }
table, th, td { border: 1px solid #999; padding: 4px 8px; }
</style>
</head>
<body>
%s
</body>
</html>`, htmlBody)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
