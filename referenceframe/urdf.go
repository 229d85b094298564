package referenceframe

import (
	"encoding/xml"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/num/quat"

	"github.com/viam-labs/evasion/spatialmath"
)

// Joint types supported in a robot description.
const (
	FixedJoint      = "fixed"
	RevoluteJoint   = "revolute"
	ContinuousJoint = "continuous"
	PrismaticJoint  = "prismatic"
)

// URDFConfig represents the fields of a Universal Robot Description Format (URDF) document used
// to build a kinematic tree.
type URDFConfig struct {
	XMLName xml.Name    `xml:"robot"`
	Name    string      `xml:"name,attr"`
	Links   []URDFLink  `xml:"link"`
	Joints  []URDFJoint `xml:"joint"`
}

// URDFLink is a struct which details the XML used in a URDF link element.
type URDFLink struct {
	XMLName xml.Name `xml:"link"`
	Name    string   `xml:"name,attr"`
}

// URDFFrame names the link on either side of a joint.
type URDFFrame struct {
	Link string `xml:"link,attr"`
}

// URDFPose is the origin element of a joint, in meters and radians.
type URDFPose struct {
	XMLName xml.Name `xml:"origin"`
	XYZ     string   `xml:"xyz,attr"`
	RPY     string   `xml:"rpy,attr"`
}

// URDFJoint is a struct which details the XML used in a URDF joint element.
type URDFJoint struct {
	XMLName xml.Name  `xml:"joint"`
	Name    string    `xml:"name,attr"`
	Type    string    `xml:"type,attr"`
	Parent  URDFFrame `xml:"parent"`
	Child   URDFFrame `xml:"child"`
	Origin  *URDFPose `xml:"origin,omitempty"`
}

// ParseURDFFile reads a URDF file and builds the kinematic tree it describes.
func ParseURDFFile(filename string) (*KinematicTree, error) {
	//nolint:gosec
	xmlData, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read URDF file")
	}
	return ParseURDF(xmlData)
}

// ParseURDF builds a kinematic tree from URDF XML. Links keep their document order; every joint
// attaches its child link to its parent link with the joint origin as the fixed offset. A joint
// whose parent is the world frame makes its child the root.
func ParseURDF(xmlData []byte) (*KinematicTree, error) {
	// empty data probably means that the read URDF has no actionable information
	if len(xmlData) == 0 {
		return nil, ErrNoModelInformation
	}

	urdf := &URDFConfig{}
	if err := xml.Unmarshal(xmlData, urdf); err != nil {
		return nil, errors.Wrap(err, "failed to convert URDF data to equivalent URDFConfig struct")
	}

	byChild := make(map[string]URDFJoint, len(urdf.Joints))
	for _, jointElem := range urdf.Joints {
		if jointElem.Name == World {
			return nil, errors.New("joints with the name 'world' are not supported")
		}
		switch jointElem.Type {
		case FixedJoint, RevoluteJoint, ContinuousJoint, PrismaticJoint:
		default:
			return nil, errors.Errorf("unsupported joint type %q for joint %q", jointElem.Type, jointElem.Name)
		}
		if _, ok := byChild[jointElem.Child.Link]; ok {
			return nil, errors.Errorf("link %q is the child of more than one joint", jointElem.Child.Link)
		}
		byChild[jointElem.Child.Link] = jointElem
	}

	configs := make([]LinkConfig, 0, len(urdf.Links))
	for _, linkElem := range urdf.Links {
		if linkElem.Name == World {
			continue
		}
		cfg := LinkConfig{ID: linkElem.Name, Orientation: quat.Number{Real: 1}}
		if jointElem, ok := byChild[linkElem.Name]; ok && jointElem.Parent.Link != World {
			cfg.Parent = jointElem.Parent.Link
			cfg.JointType = jointElem.Type
			if jointElem.Origin != nil {
				translation, orientation, err := jointElem.Origin.parse()
				if err != nil {
					return nil, errors.Wrapf(err, "joint %q", jointElem.Name)
				}
				cfg.Translation = translation
				cfg.Orientation = orientation
			}
		}
		configs = append(configs, cfg)
	}

	return NewKinematicTree(configs)
}

func (p *URDFPose) parse() (r3.Vector, quat.Number, error) {
	xyz, err := spaceDelimitedStringToTriple(p.XYZ)
	if err != nil {
		return r3.Vector{}, quat.Number{}, errors.Wrap(err, "bad origin xyz")
	}
	rpy, err := spaceDelimitedStringToTriple(p.RPY)
	if err != nil {
		return r3.Vector{}, quat.Number{}, errors.Wrap(err, "bad origin rpy")
	}
	return r3.Vector{X: xyz[0], Y: xyz[1], Z: xyz[2]}, spatialmath.QuatFromRPY(rpy[0], rpy[1], rpy[2]), nil
}

// spaceDelimitedStringToTriple splits up space-delimited fields in URDFs, such as xyz or rpy
// attributes. A missing attribute reads as zeros.
func spaceDelimitedStringToTriple(s string) ([3]float64, error) {
	var out [3]float64
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return out, nil
	}
	if len(fields) != 3 {
		return out, errors.Errorf("expected 3 values, got %d in %q", len(fields), s)
	}
	for i, field := range fields {
		value, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return out, err
		}
		if math.IsNaN(value) || math.IsInf(value, 0) {
			return out, errors.Errorf("non-finite value in %q", s)
		}
		out[i] = value
	}
	return out, nil
}
