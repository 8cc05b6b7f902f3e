package verifier

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// defaultDisposableDomains seeds the disposable set when no list file is
// configured. The file, when present, is merged over these.
var defaultDisposableDomains = []string{
	"mailinator.com",
	"guerrillamail.com",
	"10minutemail.com",
	"tempmail.com",
	"temp-mail.org",
	"throwawaymail.com",
	"yopmail.com",
	"trashmail.com",
	"getnada.com",
	"maildrop.cc",
	"dispostable.com",
	"sharklasers.com",
	"fakeinbox.com",
	"mailnesia.com",
	"mytemp.email",
}

// LoadDisposableDomains builds the disposable-domain set. The optional file
// holds one domain per line; blank lines and "#" comments are skipped.
// The returned set is lower-cased and must be treated as immutable.
func LoadDisposableDomains(path string) (map[string]struct{}, error) {
	domains := make(map[string]struct{}, len(defaultDisposableDomains))
	for _, d := range defaultDisposableDomains {
		domains[d] = struct{}{}
	}

	if path == "" {
		return domains, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open disposable domains file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		domains[strings.ToLower(line)] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read disposable domains file: %w", err)
	}

	return domains, nil
}
