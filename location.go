package docstore

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-docstore/internal/atomicfile"
)

// Reserved suffixes appended to the primary path.
const (
	TempSuffix   = atomicfile.StagingSuffix
	BackupSuffix = ".bak"
)

const quarantineLayout = "2006-01-02-15-04-05"

var quarantineStampPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}-\d{2}-\d{2}-\d{2}-\d{7}$`)

// Location is the set of sibling paths that back one document.
type Location struct {
	Primary string
	Temp    string
	Backup  string
}

// NewLocation derives the temp and backup paths from primary.
func NewLocation(primary string) Location {
	primary = filepath.Clean(primary)
	return Location{
		Primary: primary,
		Temp:    primary + TempSuffix,
		Backup:  primary + BackupSuffix,
	}
}

// Dir returns the directory holding every file of the location.
func (l Location) Dir() string {
	return filepath.Dir(l.Primary)
}

// Stem returns the primary file name without its extension.
func (l Location) Stem() string {
	base := filepath.Base(l.Primary)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Paths returns primary, backup and temp in removal order.
func (l Location) Paths() []string {
	return []string{l.Primary, l.Backup, l.Temp}
}

// QuarantinePath returns the name a corrupt primary observed at t is
// preserved under: <stem>-yyyy-MM-dd-HH-mm-ss-fffffff<ext>, where the last
// group is the fraction of a second in 100ns ticks.
func (l Location) QuarantinePath(t time.Time) string {
	stamp := fmt.Sprintf("%s-%07d", t.Format(quarantineLayout), t.Nanosecond()/100)
	return filepath.Join(l.Dir(), l.Stem()+"-"+stamp+filepath.Ext(l.Primary))
}

// QuarantineFile describes a preserved corrupt primary.
type QuarantineFile struct {
	Path string
	At   time.Time
	Size int64
}

// ListQuarantine returns the quarantine files of loc, oldest first.
func ListQuarantine(loc Location) ([]QuarantineFile, error) {
	entries, err := os.ReadDir(loc.Dir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, &StoreError{Op: OpQuarantine, Name: loc.Stem(), Path: loc.Dir(), Err: err}
	}

	prefix := loc.Stem() + "-"
	ext := filepath.Ext(loc.Primary)
	var files []QuarantineFile
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ext) {
			continue
		}
		at, ok := parseQuarantineStamp(strings.TrimSuffix(strings.TrimPrefix(name, prefix), ext))
		if !ok {
			continue
		}
		file := QuarantineFile{Path: filepath.Join(loc.Dir(), name), At: at}
		if info, err := entry.Info(); err == nil {
			file.Size = info.Size()
		}
		files = append(files, file)
	}
	sort.Slice(files, func(i, j int) bool {
		return files[i].At.Before(files[j].At)
	})
	return files, nil
}

// ParseQuarantineName splits a quarantine file name into the document stem
// and the time it was quarantined.
func ParseQuarantineName(name string) (stem string, at time.Time, ok bool) {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	const stampLen = len("2006-01-02-15-04-05-0000000")
	if len(base) < stampLen+2 || base[len(base)-stampLen-1] != '-' {
		return "", time.Time{}, false
	}
	at, ok = parseQuarantineStamp(base[len(base)-stampLen:])
	if !ok {
		return "", time.Time{}, false
	}
	return base[:len(base)-stampLen-1], at, true
}

func parseQuarantineStamp(stamp string) (time.Time, bool) {
	if !quarantineStampPattern.MatchString(stamp) {
		return time.Time{}, false
	}
	cut := len(stamp) - 8
	at, err := time.ParseInLocation(quarantineLayout, stamp[:cut], time.Local)
	if err != nil {
		return time.Time{}, false
	}
	ticks, err := strconv.Atoi(stamp[cut+1:])
	if err != nil {
		return time.Time{}, false
	}
	return at.Add(time.Duration(ticks) * 100), true
}
