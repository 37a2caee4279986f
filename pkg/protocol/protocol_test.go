package protocol

import (
	"bufio"
	"bytes"
	"testing"
	"time"

	"github.com/Othernet-Project/fsal/pkg/events"
	"github.com/Othernet-Project/fsal/pkg/fs"
)

// TestFraming tests message framing round trips.
func TestFraming(t *testing.T) {
	// Write two framed messages.
	buffer := &bytes.Buffer{}
	if err := WriteMessage(buffer, []byte("<request></request>")); err != nil {
		t.Fatal("unable to write first message:", err)
	}
	if err := WriteMessage(buffer, []byte("<response></response>")); err != nil {
		t.Fatal("unable to write second message:", err)
	}

	// Read them back.
	reader := bufio.NewReader(buffer)
	first, err := ReadMessage(reader)
	if err != nil {
		t.Fatal("unable to read first message:", err)
	}
	if string(first) != "<request></request>" {
		t.Error("first message corrupted:", string(first))
	}
	second, err := ReadMessage(reader)
	if err != nil {
		t.Fatal("unable to read second message:", err)
	}
	if string(second) != "<response></response>" {
		t.Error("second message corrupted:", string(second))
	}
}

// TestFramingLargeMessage tests framing of messages larger than the buffered
// reader's internal buffer.
func TestFramingLargeMessage(t *testing.T) {
	message := bytes.Repeat([]byte("x"), 64*1024)
	buffer := &bytes.Buffer{}
	if err := WriteMessage(buffer, message); err != nil {
		t.Fatal("unable to write message:", err)
	}
	read, err := ReadMessage(bufio.NewReaderSize(buffer, 16))
	if err != nil {
		t.Fatal("unable to read message:", err)
	}
	if !bytes.Equal(read, message) {
		t.Error("large message corrupted")
	}
}

// TestParseRequest tests request parsing.
func TestParseRequest(t *testing.T) {
	message := []byte(
		"<request><command><type>search</type><params>" +
			"<query>war and peace</query>" +
			"<whole_words>true</whole_words>" +
			"<excludes><exclude>^temp</exclude><exclude>draft</exclude></excludes>" +
			"</params></command></request>",
	)
	request, err := ParseRequest(message)
	if err != nil {
		t.Fatal("unable to parse request:", err)
	}
	if request.Type != CommandSearch {
		t.Error("unexpected command type:", request.Type)
	}
	if request.String("query") != "war and peace" {
		t.Error("unexpected query:", request.String("query"))
	}
	if !request.Bool("whole_words") {
		t.Error("whole_words flag lost")
	}
	excludes := request.List("excludes")
	if len(excludes) != 2 || excludes[0] != "^temp" || excludes[1] != "draft" {
		t.Error("unexpected excludes:", excludes)
	}
}

// TestParseRequestMalformed tests rejection of malformed requests.
func TestParseRequestMalformed(t *testing.T) {
	// Define test cases.
	testCases := [][]byte{
		[]byte(""),
		[]byte("not xml"),
		[]byte("<wrong></wrong>"),
		[]byte("<request></request>"),
		[]byte("<request><command></command></request>"),
	}

	// Process test cases.
	for _, testCase := range testCases {
		if _, err := ParseRequest(testCase); err == nil {
			t.Errorf("malformed request accepted: %s", testCase)
		}
	}
}

// TestBuildRequestRoundTrip tests that built requests parse back.
func TestBuildRequestRoundTrip(t *testing.T) {
	message := BuildRequest(CommandExists, func(params *Element) {
		params.AddText("path", "docs & <notes>")
		params.AddBool("unindexed", true)
	})
	request, err := ParseRequest(message)
	if err != nil {
		t.Fatal("unable to parse built request:", err)
	}
	if request.Type != CommandExists {
		t.Error("unexpected command type:", request.Type)
	}
	if request.String("path") != "docs & <notes>" {
		t.Error("path escaping broken:", request.String("path"))
	}
	if !request.Bool("unindexed") {
		t.Error("unindexed flag lost")
	}
}

// TestResponseRoundTrip tests that success responses carrying objects parse
// back with exact timestamps.
func TestResponseRoundTrip(t *testing.T) {
	file := fs.NewFile(
		"/srv/content", "docs/readme", 42,
		time.Unix(1456221596, 123456000), time.Unix(1456221600, 654321000),
	)
	directory := fs.NewDirectory(
		"/srv/content", "docs",
		time.Unix(1456221590, 0), time.Unix(1456221591, 500000000),
	)
	message := BuildSuccess(func(params *Element) {
		params.AddText("base-path", "/srv/content")
		dirs := params.Add("dirs")
		AddDirNode(dirs, directory)
		files := params.Add("files")
		AddFileNode(files, file)
	})

	// Parse the response.
	response, err := ParseResponse(message)
	if err != nil {
		t.Fatal("unable to parse response:", err)
	}
	if !response.Success() {
		t.Fatal("success response parsed as failure")
	}
	params := response.Params()
	if params == nil {
		t.Fatal("response carries no params")
	}
	basePath := params.Text("base-path")
	if basePath != "/srv/content" {
		t.Error("unexpected base path:", basePath)
	}

	// Reconstruct the objects and verify exact equality.
	restoredDirectory, err := ObjectFromNode(basePath, params.Child("dirs").Child("dir"))
	if err != nil {
		t.Fatal("unable to reconstruct directory:", err)
	}
	if !restoredDirectory.Equal(directory) {
		t.Error("directory round trip not exact")
	}
	restoredFile, err := ObjectFromNode(basePath, params.Child("files").Child("file"))
	if err != nil {
		t.Fatal("unable to reconstruct file:", err)
	}
	if !restoredFile.Equal(file) {
		t.Error("file round trip not exact")
	}
}

// TestErrorResponse tests failure responses.
func TestErrorResponse(t *testing.T) {
	response, err := ParseResponse(BuildError("Path not found: /missing"))
	if err != nil {
		t.Fatal("unable to parse response:", err)
	}
	if response.Success() {
		t.Error("failure response parsed as success")
	}
	if response.Error() != "Path not found: /missing" {
		t.Error("error message lost:", response.Error())
	}

	// Failure responses without messages still parse.
	response, err = ParseResponse(BuildFailure())
	if err != nil {
		t.Fatal("unable to parse bare failure:", err)
	}
	if response.Success() {
		t.Error("bare failure parsed as success")
	}
	if response.Error() != "" {
		t.Error("bare failure carries an error message")
	}
}

// TestEventRoundTrip tests change event serialisation.
func TestEventRoundTrip(t *testing.T) {
	message := BuildSuccess(func(params *Element) {
		container := params.Add("events")
		AddEventNode(container, events.FileCreated("docs/readme"))
		AddEventNode(container, events.DirDeleted("docs"))
	})
	response, err := ParseResponse(message)
	if err != nil {
		t.Fatal("unable to parse response:", err)
	}
	container := response.Params().Child("events")
	if container == nil || len(container.Children) != 2 {
		t.Fatal("events container missing or incomplete")
	}
	created, err := EventFromNode(container.Children[0])
	if err != nil {
		t.Fatal("unable to reconstruct created event:", err)
	}
	if created.Type != events.TypeCreated || created.Src != "docs/readme" || created.Dir {
		t.Error("created event corrupted:", created)
	}
	deleted, err := EventFromNode(container.Children[1])
	if err != nil {
		t.Fatal("unable to reconstruct deleted event:", err)
	}
	if deleted.Type != events.TypeDeleted || deleted.Src != "docs" || !deleted.Dir {
		t.Error("deleted event corrupted:", deleted)
	}

	// Unknown event types are rejected.
	if _, err := EventFromNode(&Node{Tag: "event"}); err == nil {
		t.Error("event without type accepted")
	}
}
