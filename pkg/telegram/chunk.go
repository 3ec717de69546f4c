package telegram

// DefaultChunkSize leaves headroom under Telegram's 4096-character message limit.
const DefaultChunkSize = 4000

// SplitMessage partitions s into consecutive chunks of at most size runes.
// Joining the chunks reproduces s exactly. An empty s yields no chunks.
func SplitMessage(s string, size int) []string {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if s == "" {
		return nil
	}

	var chunks []string
	start, count := 0, 0
	for i := range s {
		if count == size {
			chunks = append(chunks, s[start:i])
			start, count = i, 0
		}
		count++
	}
	return append(chunks, s[start:])
}
