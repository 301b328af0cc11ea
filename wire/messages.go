package wire

import (
	"fmt"
	"strconv"

	"github.com/quickft/quickft/result"
)

// BuildSendRequest renders a FILE_SND request frame.
func BuildSendRequest(path string, content []byte) []byte {
	return BuildFrame(KindSend, []Token{
		{Key: "path", Value: []byte(path)},
		{Key: "length", Value: []byte(strconv.Itoa(len(content)))},
		{Key: "content", Value: content},
	})
}

// BuildReceiveRequest renders a FILE_RCV request frame.
func BuildReceiveRequest(filename string) []byte {
	return BuildFrame(KindReceive, []Token{
		{Key: "filename", Value: []byte(filename)},
	})
}

// BuildDeleteRequest renders a FILE_DEL request frame.
func BuildDeleteRequest(filename string) []byte {
	return BuildFrame(KindDelete, []Token{
		{Key: "filename", Value: []byte(filename)},
	})
}

// BuildResultResponse renders a response carrying only a =result: token,
// used by FILE_SND and FILE_DEL responses, and by any non-success FILE_RCV
// response.
func BuildResultResponse(kind Kind, code result.Code) []byte {
	return BuildFrame(kind, []Token{
		{Key: "result", Value: []byte(code.String())},
	})
}

// BuildReceiveResponse renders a successful FILE_RCV response carrying
// result, length, and content.
func BuildReceiveResponse(content []byte) []byte {
	return BuildFrame(KindReceive, []Token{
		{Key: "result", Value: []byte(result.Success.String())},
		{Key: "length", Value: []byte(strconv.Itoa(len(content)))},
		{Key: "content", Value: content},
	})
}

// ParseSendRequest extracts path, declared length, and content from a
// FILE_SND request frame. frame is the full frame (header + variable part);
// h is its already-parsed header.
func ParseSendRequest(frame []byte, h Header) (path string, length int, content []byte, err error) {
	bodyEnd := HeaderLen + h.VarLen
	pathMarker, pathVal, ok := FindToken(frame, "path", HeaderLen)
	if !ok {
		return "", 0, nil, fmt.Errorf("wire: FILE_SND request missing =path: token")
	}
	_ = pathMarker
	lengthMarker, lengthVal, ok := FindToken(frame, "length", pathVal)
	if !ok {
		return "", 0, nil, fmt.Errorf("wire: FILE_SND request missing =length: token")
	}
	path = string(frame[pathVal:lengthMarker])
	contentMarker, contentVal, ok := FindToken(frame, "content", lengthVal)
	if !ok {
		return "", 0, nil, fmt.Errorf("wire: FILE_SND request missing =content: token")
	}
	lengthStr := string(frame[lengthVal:contentMarker])
	length, err = strconv.Atoi(lengthStr)
	if err != nil {
		return "", 0, nil, fmt.Errorf("wire: FILE_SND request has non-numeric =length: %q: %w", lengthStr, err)
	}
	if contentVal > bodyEnd {
		return "", 0, nil, fmt.Errorf("wire: FILE_SND request content token exceeds declared frame length")
	}
	content = frame[contentVal:bodyEnd]
	return path, length, content, nil
}

// ParseFilenameRequest extracts the =filename: token used by both FILE_RCV
// and FILE_DEL requests; its value spans to the end of the declared
// variable part.
func ParseFilenameRequest(frame []byte, h Header) (filename string, err error) {
	bodyEnd := HeaderLen + h.VarLen
	_, val, ok := FindToken(frame, "filename", HeaderLen)
	if !ok {
		return "", fmt.Errorf("wire: request missing =filename: token")
	}
	if val > bodyEnd {
		return "", fmt.Errorf("wire: request =filename: token exceeds declared frame length")
	}
	return string(frame[val:bodyEnd]), nil
}

// ParseResultOnlyResponse extracts the =result: token common to every
// non-success response and to FILE_SND/FILE_DEL success responses.
func ParseResultOnlyResponse(frame []byte, h Header) (result.Code, error) {
	_, val, ok := FindToken(frame, "result", HeaderLen)
	if !ok {
		return 0, fmt.Errorf("wire: response missing =result: token")
	}
	end := val + result.TokenLen
	if end > HeaderLen+h.VarLen {
		return 0, fmt.Errorf("wire: response =result: token truncated")
	}
	code, ok := result.Parse(string(frame[val:end]))
	if !ok {
		return 0, fmt.Errorf("wire: response has unrecognized =result: token %q", frame[val:end])
	}
	return code, nil
}

// ParseReceiveResponse extracts result, and on success, length and content,
// from a FILE_RCV response.
func ParseReceiveResponse(frame []byte, h Header) (code result.Code, content []byte, err error) {
	bodyEnd := HeaderLen + h.VarLen
	resultMarker, resultVal, ok := FindToken(frame, "result", HeaderLen)
	if !ok {
		return 0, nil, fmt.Errorf("wire: FILE_RCV response missing =result: token")
	}
	_ = resultMarker
	resultEnd := resultVal + result.TokenLen
	if resultEnd > bodyEnd {
		return 0, nil, fmt.Errorf("wire: FILE_RCV response =result: token truncated")
	}
	code, ok = result.Parse(string(frame[resultVal:resultEnd]))
	if !ok {
		return 0, nil, fmt.Errorf("wire: FILE_RCV response has unrecognized =result: token %q", frame[resultVal:resultEnd])
	}
	if !code.IsSuccess() {
		return code, nil, nil
	}
	lengthMarker, lengthVal, ok := FindToken(frame, "length", resultEnd)
	if !ok {
		return 0, nil, fmt.Errorf("wire: successful FILE_RCV response missing =length: token")
	}
	_ = lengthMarker
	contentMarker, contentVal, ok := FindToken(frame, "content", lengthVal)
	if !ok {
		return 0, nil, fmt.Errorf("wire: successful FILE_RCV response missing =content: token")
	}
	lengthStr := string(frame[lengthVal:contentMarker])
	length, err := strconv.Atoi(lengthStr)
	if err != nil {
		return 0, nil, fmt.Errorf("wire: FILE_RCV response has non-numeric =length: %q: %w", lengthStr, err)
	}
	if contentVal+length > bodyEnd {
		return 0, nil, fmt.Errorf("wire: FILE_RCV response declares more content than the frame carries")
	}
	content = frame[contentVal : contentVal+length]
	return code, content, nil
}
