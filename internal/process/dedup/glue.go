package dedup

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"

	"github.com/lueurxax/telegram-feed-connector/internal/core/domain"
)

// Default gluing limits.
const (
	DefaultMinASCIILength = 20
	DefaultMaxLength      = 512
)

const glueSeparator = " "

// Options configures Glue.
type Options struct {
	// MinASCIILength drops groups whose ascii-only concatenation is shorter.
	MinASCIILength int
	// MaxLength truncates the glued text, in characters.
	MaxLength int
}

// DefaultOptions returns the production gluing limits.
func DefaultOptions() Options {
	return Options{MinASCIILength: DefaultMinASCIILength, MaxLength: DefaultMaxLength}
}

// Stats summarizes one Glue call.
type Stats struct {
	Input   int
	Groups  int
	Dropped int
	Output  int
}

// Glue merges messages sharing (user, channel, referenced post) into one record per group.
//
// Members are ordered by timestamp and their texts joined with a single space.
// Groups whose ascii-only concatenation is shorter than MinASCIILength are dropped.
// A surviving group becomes a copy of its last member carrying the joined text,
// cut to MaxLength characters and trimmed, and the media of all members in order.
// The output is ordered by timestamp. The input slice is not modified.
func Glue(msgs []domain.NormalizedMessage, opts Options) []domain.NormalizedMessage {
	out, _ := GlueWithStats(msgs, opts)

	return out
}

// GlueWithStats is Glue that also reports group counts.
func GlueWithStats(msgs []domain.NormalizedMessage, opts Options) ([]domain.NormalizedMessage, Stats) {
	stats := Stats{Input: len(msgs)}

	groups, order := groupByThread(msgs)
	stats.Groups = len(order)

	glued := make([]domain.NormalizedMessage, 0, len(order))

	for _, key := range order {
		members := groups[key]
		sortByTimestamp(members)

		text := joinTexts(members)
		if len(ASCIIOnly(text)) < opts.MinASCIILength {
			stats.Dropped++
			continue
		}

		merged := members[len(members)-1].Clone()
		merged.Message.Text = strings.TrimSpace(truncateRunes(text, opts.MaxLength))

		if media := collectMedia(members); len(media) > 0 {
			merged.Message.Media = media
		}

		glued = append(glued, merged)
	}

	sortByTimestamp(glued)
	stats.Output = len(glued)

	return glued, stats
}

func groupByThread(msgs []domain.NormalizedMessage) (map[domain.ThreadKey][]domain.NormalizedMessage, []domain.ThreadKey) {
	groups := make(map[domain.ThreadKey][]domain.NormalizedMessage)

	var order []domain.ThreadKey

	for _, m := range msgs {
		key := m.ThreadKey()
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}

		groups[key] = append(groups[key], m)
	}

	return groups, order
}

func sortByTimestamp(msgs []domain.NormalizedMessage) {
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].Timestamp.Before(msgs[j].Timestamp)
	})
}

func joinTexts(members []domain.NormalizedMessage) string {
	texts := make([]string, len(members))
	for i, m := range members {
		texts[i] = m.Message.Text
	}

	return strings.Join(texts, glueSeparator)
}

func collectMedia(members []domain.NormalizedMessage) []domain.MediaElement {
	var media []domain.MediaElement

	for _, m := range members {
		media = append(media, m.Message.Media...)
	}

	return media
}

// ASCIIOnly drops every non-ascii character from s.
func ASCIIOnly(s string) string {
	out, _, err := transform.String(runes.Remove(runes.Predicate(isNonASCII)), s)
	if err != nil {
		return ""
	}

	return out
}

func isNonASCII(r rune) bool {
	return r > unicode.MaxASCII
}

func truncateRunes(s string, maxRunes int) string {
	if maxRunes <= 0 {
		return s
	}

	runeCount := 0

	for i := range s {
		if runeCount == maxRunes {
			return s[:i]
		}

		runeCount++
	}

	return s
}
