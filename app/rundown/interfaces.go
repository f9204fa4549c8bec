package rundown

// StoryReader provides access to a remote rundown store. Implementations
// must tolerate being called repeatedly without an explicit disconnect
// between calls.
type StoryReader interface {
	ListEntries(path string) ([]Entry, error)
	ReadStory(name string) (string, error)
}
