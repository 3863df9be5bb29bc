package method

type Method uint8

const (
	Unknown Method = iota
	GET
	POST
)

// List contains all the recognized HTTP methods. Everything else is answered
// with 501 Not Implemented.
var List = []Method{GET, POST}

func Parse(str string) Method {
	switch str {
	case "GET":
		return GET
	case "POST":
		return POST
	}

	return Unknown
}

// Prefix returns the method the request line begins with, and the rest of the line
// past the single space separating the method and the URI.
func Prefix(line []byte) (Method, []byte) {
	for _, m := range List {
		token := m.String()
		if len(line) > len(token) && string(line[:len(token)]) == token && line[len(token)] == ' ' {
			return m, line[len(token)+1:]
		}
	}

	return Unknown, line
}

func (m Method) String() string {
	switch m {
	case GET:
		return "GET"
	case POST:
		return "POST"
	}

	return "Unknown"
}
