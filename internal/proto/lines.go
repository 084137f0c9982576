package proto

// This file implements the line joining older originals performed on
// received messages: the body was read line by line, and each line appended
// without its terminator. "\n", "\r\n" and a lone "\r" all end a line.

func stripLineTerminators(data []byte) []byte {
	result := make([]byte, 0, len(data))
	for i := 0; i < len(data); i++ {
		if isLineTerminator(data[i]) {
			continue
		}
		result = append(result, data[i])
	}
	return result
}

func isLineTerminator(char byte) bool {
	return char == '\n' || char == '\r'
}
