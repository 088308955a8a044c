package frontier

import "strings"

// Queue is the crawl frontier: a FIFO of URLs waiting to be fetched plus the
// set of URLs already fetched. Identity is the normalized form, so the same
// page with and without a trailing slash is enqueued at most once. The queue
// holds URLs in their original form for fetching.
type Queue struct {
	pending  []string
	enqueued map[string]struct{}
	visited  map[string]struct{}
}

func NewQueue() *Queue {
	return &Queue{
		enqueued: make(map[string]struct{}),
		visited:  make(map[string]struct{}),
	}
}

// Normalize returns the dedup identity of a URL: trailing slashes stripped.
func Normalize(url string) string {
	return strings.TrimRight(url, "/")
}

// Enqueue appends the url unless its identity is already visited or pending.
// Reports whether the url was added.
func (q *Queue) Enqueue(url string) bool {
	key := Normalize(url)
	if _, ok := q.visited[key]; ok {
		return false
	}
	if _, ok := q.enqueued[key]; ok {
		return false
	}
	q.enqueued[key] = struct{}{}
	q.pending = append(q.pending, url)

	return true
}

// Dequeue pops the earliest-enqueued pending url. The second return value is
// false when the frontier is exhausted.
func (q *Queue) Dequeue() (string, bool) {
	if len(q.pending) == 0 {
		return "", false
	}
	url := q.pending[0]
	q.pending = q.pending[1:]
	delete(q.enqueued, Normalize(url))

	return url, true
}

// MarkVisited moves the url into the visited set, making it ineligible for
// any future enqueue.
func (q *Queue) MarkVisited(url string) {
	q.visited[Normalize(url)] = struct{}{}
}

func (q *Queue) Visited(url string) bool {
	_, ok := q.visited[Normalize(url)]
	return ok
}

// Len is the number of pending urls.
func (q *Queue) Len() int {
	return len(q.pending)
}
