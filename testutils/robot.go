// Package testutils holds robot and body fixtures shared by tests.
package testutils

import (
	"strconv"
	"strings"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// PandaURDF is a trimmed Franka Panda description: kinematic elements only, no inertia or meshes.
const PandaURDF = `<?xml version="1.0" ?>
<robot name="panda">
  <link name="panda_link0"/>
  <link name="panda_link1"/>
  <link name="panda_link2"/>
  <link name="panda_link3"/>
  <link name="panda_link4"/>
  <link name="panda_link5"/>
  <link name="panda_link6"/>
  <link name="panda_link7"/>
  <link name="panda_link8"/>
  <link name="panda_hand"/>
  <link name="panda_leftfinger"/>
  <link name="panda_rightfinger"/>
  <joint name="panda_joint1" type="revolute">
    <origin rpy="0 0 0" xyz="0 0 0.333"/>
    <parent link="panda_link0"/>
    <child link="panda_link1"/>
  </joint>
  <joint name="panda_joint2" type="revolute">
    <origin rpy="-1.5707963267948966 0 0" xyz="0 0 0"/>
    <parent link="panda_link1"/>
    <child link="panda_link2"/>
  </joint>
  <joint name="panda_joint3" type="revolute">
    <origin rpy="1.5707963267948966 0 0" xyz="0 -0.316 0"/>
    <parent link="panda_link2"/>
    <child link="panda_link3"/>
  </joint>
  <joint name="panda_joint4" type="revolute">
    <origin rpy="1.5707963267948966 0 0" xyz="0.0825 0 0"/>
    <parent link="panda_link3"/>
    <child link="panda_link4"/>
  </joint>
  <joint name="panda_joint5" type="revolute">
    <origin rpy="-1.5707963267948966 0 0" xyz="-0.0825 0.384 0"/>
    <parent link="panda_link4"/>
    <child link="panda_link5"/>
  </joint>
  <joint name="panda_joint6" type="revolute">
    <origin rpy="1.5707963267948966 0 0" xyz="0 0 0"/>
    <parent link="panda_link5"/>
    <child link="panda_link6"/>
  </joint>
  <joint name="panda_joint7" type="revolute">
    <origin rpy="1.5707963267948966 0 0" xyz="0.088 0 0"/>
    <parent link="panda_link6"/>
    <child link="panda_link7"/>
  </joint>
  <joint name="panda_joint8" type="fixed">
    <origin rpy="0 0 0" xyz="0 0 0.107"/>
    <parent link="panda_link7"/>
    <child link="panda_link8"/>
  </joint>
  <joint name="panda_hand_joint" type="fixed">
    <origin rpy="0 0 -0.7853981633974483" xyz="0 0 0"/>
    <parent link="panda_link8"/>
    <child link="panda_hand"/>
  </joint>
  <joint name="panda_finger_joint1" type="prismatic">
    <origin rpy="0 0 0" xyz="0 0 0.0584"/>
    <parent link="panda_hand"/>
    <child link="panda_leftfinger"/>
  </joint>
  <joint name="panda_finger_joint2" type="prismatic">
    <origin rpy="0 0 0" xyz="0 0 0.0584"/>
    <parent link="panda_hand"/>
    <child link="panda_rightfinger"/>
  </joint>
</robot>
`

// PandaTFNames are the child frame ids a Panda driver broadcasts on /tf, in broadcast order.
var PandaTFNames = []string{
	"panda_link1", "panda_link2", "panda_link3", "panda_link4", "panda_link5", "panda_link6",
	"panda_link7", "panda_leftfinger", "panda_rightfinger",
}

// StraightChainURDF returns a description of n links stacked along +Z, spacing meters apart, named
// prefix0..prefix(n-1).
func StraightChainURDF(prefix string, n int, spacing float64) string {
	var sb strings.Builder
	sb.WriteString(`<robot name="straight">`)
	for i := 0; i < n; i++ {
		sb.WriteString(`<link name="` + prefix + strconv.Itoa(i) + `"/>`)
	}
	for i := 1; i < n; i++ {
		sb.WriteString(`<joint name="joint` + strconv.Itoa(i) + `" type="revolute">`)
		sb.WriteString(`<origin xyz="0 0 ` + strconv.FormatFloat(spacing, 'f', -1, 64) + `"/>`)
		sb.WriteString(`<parent link="` + prefix + strconv.Itoa(i-1) + `"/><child link="` + prefix + strconv.Itoa(i) + `"/>`)
		sb.WriteString(`</joint>`)
	}
	sb.WriteString(`</robot>`)
	return sb.String()
}

// StraightChainPositions returns n points along +Z spaced spacing apart, starting at the origin.
func StraightChainPositions(n int, spacing float64) []r3.Vector {
	out := make([]r3.Vector, n)
	for i := range out {
		out[i] = r3.Vector{Z: float64(i) * spacing}
	}
	return out
}

// IdentityRotation is the unit quaternion with no rotation.
var IdentityRotation = quat.Number{Real: 1}
