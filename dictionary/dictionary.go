package dictionary

import (
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/tchap/go-patricia/v2/patricia"
)

// DefaultFloorFreq is the frequency reported for words the dictionary does not know.
const DefaultFloorFreq = 1.0

var (
	// ErrDictionaryLoad is wrapped by every error returned while parsing a dictionary source.
	ErrDictionaryLoad = errors.New("dictionary load")
	// ErrInvalidWord is returned when inserting an empty word or one containing whitespace.
	ErrInvalidWord = errors.New("invalid word")
)

// Entry is a single dictionary word.
type Entry struct {
	Word string  `msgpack:"w"`
	Freq float64 `msgpack:"f"`
	Tag  string  `msgpack:"t,omitempty"`
}

// Match is a dictionary word found at a rune position. End is exclusive.
type Match struct {
	End  int
	Freq float64
}

// Store holds the main dictionary, the runtime-mutable user layer and a
// prefix index over the effective word set.
type Store struct {
	mu sync.RWMutex

	main  map[string]*Entry
	user  map[string]*Entry
	trie  *patricia.Trie
	total float64
	// maxLen only grows; it bounds prefix scans.
	maxLen int

	floorFreq       float64
	defaultUserFreq float64
}

// Option configures a Store.
type Option func(*Store)

// WithFloorFreq sets the frequency used for unknown words.
func WithFloorFreq(f float64) Option {
	return func(d *Store) {
		if f > 0 {
			d.floorFreq = f
		}
	}
}

// WithDefaultUserFreq sets the frequency given to user words inserted
// without one. By default the median of the main dictionary is used.
func WithDefaultUserFreq(f float64) Option {
	return func(d *Store) {
		if f > 0 {
			d.defaultUserFreq = f
		}
	}
}

// New creates an empty store.
func New(opts ...Option) *Store {
	d := &Store{
		main:      make(map[string]*Entry),
		user:      make(map[string]*Entry),
		trie:      patricia.NewTrie(),
		floorFreq: DefaultFloorFreq,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Load builds a store from a main dictionary and an optional user dictionary.
// Lines are "word freq [tag]"; the user dictionary may omit the frequency.
func Load(main, user io.Reader, opts ...Option) (*Store, error) {
	if main == nil {
		return nil, fmt.Errorf("%w: main dictionary source is nil", ErrDictionaryLoad)
	}
	d := New()
	err := parseEntries("main", main, true, func(e Entry) {
		d.addMain(e)
	})
	if err != nil {
		return nil, err
	}
	d.defaultUserFreq = d.medianFreq()
	for _, opt := range opts {
		opt(d)
	}

	if user != nil {
		err := parseEntries("user", user, false, func(e Entry) {
			if e.Freq <= 0 {
				e.Freq = d.defaultUserFreq
			}
			d.setUser(e)
		})
		if err != nil {
			return nil, err
		}
	}
	return d, nil
}

func (d *Store) addMain(e Entry) {
	if old, ok := d.main[e.Word]; ok {
		d.total -= old.Freq
	}
	entry := &Entry{Word: e.Word, Freq: e.Freq, Tag: e.Tag}
	d.main[e.Word] = entry
	d.total += entry.Freq
	d.trie.Set(patricia.Prefix(e.Word), entry)
	d.growMaxLen(e.Word)
}

func (d *Store) growMaxLen(word string) {
	if n := utf8.RuneCountInString(word); n > d.maxLen {
		d.maxLen = n
	}
}

func (d *Store) medianFreq() float64 {
	if len(d.main) == 0 {
		return DefaultFloorFreq
	}
	freqs := make([]float64, 0, len(d.main))
	for _, e := range d.main {
		freqs = append(freqs, e.Freq)
	}
	sort.Float64s(freqs)
	return freqs[len(freqs)/2]
}

// effective returns the entry currently visible for word.
func (d *Store) effective(word string) (*Entry, bool) {
	if e, ok := d.user[word]; ok {
		return e, true
	}
	e, ok := d.main[word]
	return e, ok
}

func (d *Store) setUser(e Entry) {
	if old, ok := d.effective(e.Word); ok {
		d.total -= old.Freq
	}
	entry := &Entry{Word: e.Word, Freq: e.Freq, Tag: e.Tag}
	d.user[e.Word] = entry
	d.total += entry.Freq
	d.trie.Set(patricia.Prefix(e.Word), entry)
	d.growMaxLen(e.Word)
}

// InsertUserWord adds or replaces a user word. A non-positive freq means the
// default user frequency.
func (d *Store) InsertUserWord(word string, freq float64, tag string) error {
	if word == "" || strings.ContainsFunc(word, isSpace) {
		return fmt.Errorf("%w: %q", ErrInvalidWord, word)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if freq <= 0 {
		freq = d.defaultUserFreq
	}
	d.setUser(Entry{Word: word, Freq: freq, Tag: tag})
	return nil
}

// DeleteUserWord removes a user word, making the main entry for the same
// word visible again. Missing words are ignored.
func (d *Store) DeleteUserWord(word string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	old, ok := d.user[word]
	if !ok {
		return
	}
	delete(d.user, word)
	d.total -= old.Freq
	if e, ok := d.main[word]; ok {
		d.total += e.Freq
		d.trie.Set(patricia.Prefix(word), e)
		return
	}
	d.trie.Delete(patricia.Prefix(word))
}

// View runs fn with the read lock held. fn must not mutate the store.
func (d *Store) View(fn func(txn *Txn)) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	fn(&Txn{d: d})
}

// LookupWordsStartingAt returns every known word beginning at pos.
func (d *Store) LookupWordsStartingAt(runes []rune, pos int) []Match {
	var res []Match
	d.View(func(txn *Txn) {
		res = txn.WordsStartingAt(runes, pos)
	})
	return res
}

// Lookup returns the effective entry for word.
func (d *Store) Lookup(word string) (Entry, bool) {
	var (
		e  Entry
		ok bool
	)
	d.View(func(txn *Txn) {
		e, ok = txn.Lookup(word)
	})
	return e, ok
}

// Contains checks if a word exists in the dictionary.
func (d *Store) Contains(word string) bool {
	_, ok := d.Lookup(word)
	return ok
}

// WordFrequency returns the frequency of word, or the floor frequency when unknown.
func (d *Store) WordFrequency(word string) float64 {
	var f float64
	d.View(func(txn *Txn) {
		f = txn.Frequency(word)
	})
	return f
}

// LogProbability returns log(freq/total) for word.
func (d *Store) LogProbability(word string) float64 {
	var p float64
	d.View(func(txn *Txn) {
		p = math.Log(txn.Frequency(word)) - txn.LogTotal()
	})
	return p
}

// IsUserWord reports whether word is present in the user layer.
func (d *Store) IsUserWord(word string) bool {
	var ok bool
	d.View(func(txn *Txn) {
		ok = txn.IsUserWord(word)
	})
	return ok
}

// Total returns the sum of the effective word frequencies.
func (d *Store) Total() float64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.total
}

// MaxLen returns the longest word length in runes.
func (d *Store) MaxLen() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.maxLen
}

// Len returns the number of effective words.
func (d *Store) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	n := len(d.main)
	for w := range d.user {
		if _, ok := d.main[w]; !ok {
			n++
		}
	}
	return n
}

// UserWords returns a copy of the user layer sorted by word.
func (d *Store) UserWords() []Entry {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return sortedEntries(d.user)
}

// FloorFreq returns the frequency used for unknown words.
func (d *Store) FloorFreq() float64 {
	return d.floorFreq
}

// DefaultUserFreq returns the frequency given to user words inserted without one.
func (d *Store) DefaultUserFreq() float64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.defaultUserFreq
}

func sortedEntries(m map[string]*Entry) []Entry {
	res := make([]Entry, 0, len(m))
	for _, e := range m {
		res = append(res, *e)
	}
	sort.Slice(res, func(i, j int) bool {
		return res[i].Word < res[j].Word
	})
	return res
}

// Txn is a read-only view of a Store used while its read lock is held.
type Txn struct {
	d *Store
}

// WordsStartingAt returns every known word beginning at pos, shortest first.
func (txn *Txn) WordsStartingAt(runes []rune, pos int) []Match {
	d := txn.d
	if pos < 0 || pos >= len(runes) || d.maxLen == 0 {
		return nil
	}
	end := pos + d.maxLen
	if end > len(runes) {
		end = len(runes)
	}
	key := patricia.Prefix(string(runes[pos:end]))

	var res []Match
	_ = d.trie.VisitPrefixes(key, func(p patricia.Prefix, item patricia.Item) error {
		e, ok := item.(*Entry)
		if !ok || len(p) == 0 {
			return nil
		}
		res = append(res, Match{End: pos + utf8.RuneCount(p), Freq: e.Freq})
		return nil
	})
	sort.Slice(res, func(i, j int) bool {
		return res[i].End < res[j].End
	})
	return res
}

// Lookup returns the effective entry for word.
func (txn *Txn) Lookup(word string) (Entry, bool) {
	e, ok := txn.d.effective(word)
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// Contains checks if a word exists in the dictionary.
func (txn *Txn) Contains(word string) bool {
	_, ok := txn.d.effective(word)
	return ok
}

// IsUserWord reports whether word is present in the user layer.
func (txn *Txn) IsUserWord(word string) bool {
	_, ok := txn.d.user[word]
	return ok
}

// Frequency returns the frequency of word, or the floor frequency when unknown.
func (txn *Txn) Frequency(word string) float64 {
	if e, ok := txn.d.effective(word); ok {
		return e.Freq
	}
	return txn.d.floorFreq
}

// FloorFreq returns the frequency used for unknown words.
func (txn *Txn) FloorFreq() float64 {
	return txn.d.floorFreq
}

// LogTotal returns log of the total frequency, or 0 for an empty dictionary.
func (txn *Txn) LogTotal() float64 {
	if txn.d.total <= 0 {
		return 0
	}
	return math.Log(txn.d.total)
}
