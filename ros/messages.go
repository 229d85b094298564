package ros

import (
	"time"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/viam-labs/evasion/bodytrack"
	"github.com/viam-labs/evasion/kinematics"
	"github.com/viam-labs/evasion/repulsion"
	"github.com/viam-labs/evasion/spatialmath"
)

// Meta is the bag timestamp of a message.
type Meta struct {
	Secs  int64 `json:"secs"`
	Nsecs int64 `json:"nsecs"`
}

// Time returns the timestamp as a time.
func (m Meta) Time() time.Time {
	return time.Unix(m.Secs, m.Nsecs)
}

// MetaFromTime converts a time into a bag timestamp.
func MetaFromTime(t time.Time) Meta {
	return Meta{Secs: t.Unix(), Nsecs: int64(t.Nanosecond())}
}

// Array2d is a row-major numeric array with explicit dimensions.
type Array2d struct {
	Height int       `json:"height"`
	Width  int       `json:"width"`
	Array  []float64 `json:"array"`
}

// Array2dMessage carries keypoint rows inbound and repulsion forces outbound.
type Array2dMessage struct {
	Meta Meta    `json:"meta"`
	Data Array2d `json:"data"`
}

// Vector3 is a ROS geometry_msgs/Vector3.
type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Quaternion is a ROS geometry_msgs/Quaternion.
type Quaternion struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
	W float64 `json:"w"`
}

// TransformStamped is one relative transform of a /tf broadcast.
type TransformStamped struct {
	Header struct {
		Stamp   Meta   `json:"stamp"`
		FrameID string `json:"frame_id"`
	} `json:"header"`
	ChildFrameID string `json:"child_frame_id"`
	Transform    struct {
		Translation Vector3    `json:"translation"`
		Rotation    Quaternion `json:"rotation"`
	} `json:"transform"`
}

// TFMessage is a batch of transforms.
type TFMessage struct {
	Meta Meta `json:"meta"`
	Data struct {
		Transforms []TransformStamped `json:"transforms"`
	} `json:"data"`
}

// StringMessage is a std_msgs/String, which carries the robot description.
type StringMessage struct {
	Meta Meta `json:"meta"`
	Data struct {
		Data string `json:"data"`
	} `json:"data"`
}

// KeypointRows splits a keypoint array into rows of [bodyId, limbId, x, y, z].
func KeypointRows(msg Array2d) ([][]float64, error) {
	if msg.Width != bodytrack.KeypointRowWidth {
		return nil, errors.Errorf("keypoint array must be %d wide, got %d", bodytrack.KeypointRowWidth, msg.Width)
	}
	if msg.Height < 0 || len(msg.Array) != msg.Height*msg.Width {
		return nil, errors.Errorf("keypoint array is %dx%d but has %d values", msg.Height, msg.Width, len(msg.Array))
	}
	rows := make([][]float64, msg.Height)
	for i := range rows {
		rows[i] = msg.Array[i*msg.Width : (i+1)*msg.Width]
	}
	return rows, nil
}

// TransformSamples converts a /tf batch into relative joint transforms.
func TransformSamples(msg TFMessage) []kinematics.TransformSample {
	out := make([]kinematics.TransformSample, 0, len(msg.Data.Transforms))
	for _, tf := range msg.Data.Transforms {
		tr, rot := tf.Transform.Translation, tf.Transform.Rotation
		out = append(out, kinematics.TransformSample{
			ChildID:     tf.ChildFrameID,
			Translation: r3.Vector{X: tr.X, Y: tr.Y, Z: tr.Z},
			Rotation:    spatialmath.QuatFromXYZW(rot.X, rot.Y, rot.Z, rot.W),
		})
	}
	return out
}

// ForceArray2d lays a force message out the way the controller reads it: the flattened
// joint-major data with height and width swapped.
func ForceArray2d(msg repulsion.ForceMessage) Array2d {
	return Array2d{
		Height: msg.Cols,
		Width:  msg.Rows,
		Array:  append([]float64(nil), msg.Data...),
	}
}
