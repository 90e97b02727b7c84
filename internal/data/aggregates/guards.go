package aggregates

import (
	"fmt"
	"os"
	"strings"
	"sync"
)

// Writer tags permitted to touch the user_progress aggregate. The XP
// service owns the recompute path; the integrity repairer is the only
// other sanctioned writer.
const (
	WriterXPService        = "xp_service"
	WriterIntegrityService = "integrity_service"
)

var aggregateWriters = map[string]bool{
	WriterXPService:        true,
	WriterIntegrityService: true,
}

var (
	strictOnce sync.Once
	strictOn   bool
)

func strictWrites() bool {
	strictOnce.Do(func() {
		v := strings.ToLower(strings.TrimSpace(os.Getenv("APP_DEBUG")))
		strictOn = v == "1" || v == "true" || v == "yes"
	})
	return strictOn
}

// AssertAggregateWriter rejects aggregate writes from components outside
// the allowlist. In debug mode an unknown tag is a hard error; in
// production it is refused and left to the caller to report.
func AssertAggregateWriter(tag string) error {
	if aggregateWriters[tag] {
		return nil
	}
	err := fmt.Errorf("aggregate write refused for unauthorized writer %q", tag)
	if strictWrites() {
		panic(err)
	}
	return err
}
