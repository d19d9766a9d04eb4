package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// readPassword is replaced in tests so they never touch the terminal.
var readPassword = term.ReadPassword

// endOfText terminates GetMultiline input on a line of its own.
const endOfText = "."

// GetSimpleText writes prompt and reads one trimmed line. A final line
// without a newline is returned as is.
func GetSimpleText(reader *bufio.Reader, prompt string, w io.Writer) (string, error) {
	if _, err := fmt.Fprint(w, prompt+"\n> "); err != nil {
		return "", err
	}
	line, err := reader.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// GetPassword reads a password without echo. Callers wipe the result.
func GetPassword(w io.Writer) ([]byte, error) {
	if _, err := fmt.Fprint(w, "Password: "); err != nil {
		return nil, err
	}
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return nil, err
	}
	return pw, nil
}

// GetMultiline reads a markdown body up to a line holding only "." or EOF.
// Blank lines inside the body are kept; surrounding blank lines are not.
func GetMultiline(reader *bufio.Reader, prompt string, w io.Writer) (string, error) {
	if _, err := fmt.Fprintf(w, "%s\n(markdown; finish with a line containing only %q)\n", prompt, endOfText); err != nil {
		return "", err
	}

	var lines []string
	for {
		line, err := reader.ReadString('\n')
		line = strings.TrimRight(line, "\r\n")
		if line == endOfText {
			break
		}
		if err != nil {
			if line != "" {
				lines = append(lines, line)
			}
			if !errors.Is(err, io.EOF) {
				return "", err
			}
			break
		}
		lines = append(lines, line)
	}

	return strings.Trim(strings.Join(lines, "\n"), "\n \t"), nil
}

// GetTags prompts for a comma-separated list on one line. Blank entries
// are dropped; a blank line yields nil.
func GetTags(reader *bufio.Reader, prompt string, w io.Writer) ([]string, error) {
	line, err := GetSimpleText(reader, prompt+" (comma-separated)", w)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	var tags []string
	for _, t := range strings.Split(line, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags, nil
}
