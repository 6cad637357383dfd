// Package batch reads download lists for the headless download command.
package batch

import (
	"bufio"
	"os"
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// ReadBatchFile reads one URL per line. Blank lines and lines starting with
// '#' are skipped, as is anything after a " #" on a URL line.
func ReadBatchFile(filename string) ([]string, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read batch file", goerr.V("file", filename))
	}
	defer f.Close()

	var urls []string
	scanner := bufio.NewScanner(f)
	for lineNo := 1; scanner.Scan(); lineNo++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if i := strings.Index(line, " #"); i >= 0 {
			line = strings.TrimSpace(line[:i])
		}
		if strings.ContainsAny(line, " \t") {
			return nil, goerr.New("batch line contains whitespace",
				goerr.V("file", filename), goerr.V("line", lineNo))
		}
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to scan batch file", goerr.V("file", filename))
	}

	return urls, nil
}
