// Package ros reads and writes the ROS message shapes of the evasion service and replays
// recorded bags through it.
package ros

import (
	"bytes"
	"io"
	"os"
	"strings"

	"github.com/edaniels/gobag/rosbag"
	"github.com/pkg/errors"
	"go.viam.com/utils"
)

// ReadBag reads the contents of a rosbag into a gobag data structure.
func ReadBag(filename string) (*rosbag.RosBag, error) {
	//nolint:gosec
	f, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open input file")
	}
	defer utils.UncheckedErrorFunc(f.Close)

	rb := rosbag.NewRosBag()
	if err := rb.Read(f); err != nil {
		return nil, errors.Wrapf(err, "unable to create ros bag")
	}
	return rb, nil
}

// bagTopicKey is the name gobag files a topic's JSON under: lower case, no leading slash, inner
// slashes as underscores.
func bagTopicKey(topic string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimPrefix(topic, "/"), "/", "_"))
}

// TopicMessages returns the raw JSON messages of each requested topic, in bag order. Topics with
// no messages are absent from the result. "/tf" and "tf" name the same topic.
func TopicMessages(rb *rosbag.RosBag, topics ...string) (map[string][][]byte, error) {
	wanted := make(map[string]bool, len(topics))
	for _, topic := range topics {
		wanted[bagTopicKey(topic)] = true
	}
	if err := rb.ParseTopicsToJSON(
		"",
		func(int64) bool { return true },
		func(t string) bool { return wanted[bagTopicKey(t)] },
		false,
	); err != nil {
		return nil, errors.Wrapf(err, "error while parsing bag to JSON")
	}

	out := map[string][][]byte{}
	for _, topic := range topics {
		msgs := rb.TopicsAsJSON[bagTopicKey(topic)]
		if msgs == nil {
			continue
		}
		for {
			data, err := msgs.ReadBytes('\n')
			if line := bytes.TrimSpace(data); len(line) > 0 {
				out[topic] = append(out[topic], line)
			}
			if err != nil {
				if errors.Is(err, io.EOF) {
					break
				}
				return nil, err
			}
		}
	}
	return out, nil
}

// AllMessagesForTopic returns all raw messages of one topic, or an error if there are none.
func AllMessagesForTopic(rb *rosbag.RosBag, topic string) ([][]byte, error) {
	msgs, err := TopicMessages(rb, topic)
	if err != nil {
		return nil, err
	}
	if len(msgs[topic]) == 0 {
		return nil, errors.Errorf("no messages for topic %s", topic)
	}
	return msgs[topic], nil
}
