package ros

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/edaniels/gobag/rosbag"
	"go.viam.com/test"
)

// memoryBag returns a bag whose topics are already parsed to JSON lines, keyed the way gobag
// files them.
func memoryBag(topics map[string][]string) *rosbag.RosBag {
	rb := rosbag.NewRosBag()
	for key, lines := range topics {
		rb.TopicsAsJSON[key] = bytes.NewBufferString(strings.Join(lines, "\n") + "\n")
	}
	return rb
}

func TestBagTopicKey(t *testing.T) {
	for topic, key := range map[string]string{
		"tf":                "tf",
		"/tf":               "tf",
		"/Human/kpt_data":   "human_kpt_data",
		"robot_description": "robot_description",
		"/a/b/c":            "a_b_c",
	} {
		test.That(t, bagTopicKey(topic), test.ShouldEqual, key)
	}
}

func TestReadBag(t *testing.T) {
	dir := t.TempDir()
	write := func(name, contents string) string {
		path := filepath.Join(dir, name)
		test.That(t, os.WriteFile(path, []byte(contents), 0o600), test.ShouldBeNil)
		return path
	}

	for _, tc := range []struct {
		name     string
		path     string
		errorMsg string
	}{
		{"missing", filepath.Join(dir, "missing.bag"), "unable to open input file"},
		{"empty", write("empty.bag", ""), "unable to create ros bag"},
		{"truncated", write("short.bag", "#ROS"), "unable to create ros bag"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ReadBag(tc.path)
			test.That(t, err, test.ShouldNotBeNil)
			test.That(t, err.Error(), test.ShouldContainSubstring, tc.errorMsg)
		})
	}

	rb, err := ReadBag(write("header.bag", "#ROSBAG V2.0\n"))
	test.That(t, err, test.ShouldBeNil)
	msgs, err := TopicMessages(rb, "tf")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, msgs, test.ShouldBeEmpty)
	_, err = AllMessagesForTopic(rb, "tf")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "no messages for topic tf")
}

func TestTopicMessages(t *testing.T) {
	rb := memoryBag(map[string][]string{
		"tf":       {`{"a":1}`, "", `{"a":2}`},
		"kpt_data": {`{"b":1}`},
		"other":    {`{"c":1}`},
	})
	msgs, err := TopicMessages(rb, "/tf", "kpt_data", "missing")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, msgs, test.ShouldHaveLength, 2)
	test.That(t, msgs["/tf"], test.ShouldResemble, [][]byte{[]byte(`{"a":1}`), []byte(`{"a":2}`)})
	test.That(t, msgs["kpt_data"], test.ShouldResemble, [][]byte{[]byte(`{"b":1}`)})

	desc, err := AllMessagesForTopic(rb, "other")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, desc, test.ShouldHaveLength, 1)
}
