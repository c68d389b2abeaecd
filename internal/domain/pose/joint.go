// Package pose models the skeletal landmarks produced by the external pose
// estimator.
//
// Coordinates are normalized to [0,1] with the origin at the top-left corner
// of the frame: X grows to the right and Y grows downwards, so a numerically
// larger Y means a point sits lower in the picture (closer to the ground).
package pose

import "strings"

// Joint identifies one body landmark in the 33-point MediaPipe vocabulary.
type Joint string

// Landmark vocabulary.
const (
	Nose           Joint = "NOSE"
	LeftEyeInner   Joint = "LEFT_EYE_INNER"
	LeftEye        Joint = "LEFT_EYE"
	LeftEyeOuter   Joint = "LEFT_EYE_OUTER"
	RightEyeInner  Joint = "RIGHT_EYE_INNER"
	RightEye       Joint = "RIGHT_EYE"
	RightEyeOuter  Joint = "RIGHT_EYE_OUTER"
	LeftEar        Joint = "LEFT_EAR"
	RightEar       Joint = "RIGHT_EAR"
	MouthLeft      Joint = "MOUTH_LEFT"
	MouthRight     Joint = "MOUTH_RIGHT"
	LeftShoulder   Joint = "LEFT_SHOULDER"
	RightShoulder  Joint = "RIGHT_SHOULDER"
	LeftElbow      Joint = "LEFT_ELBOW"
	RightElbow     Joint = "RIGHT_ELBOW"
	LeftWrist      Joint = "LEFT_WRIST"
	RightWrist     Joint = "RIGHT_WRIST"
	LeftPinky      Joint = "LEFT_PINKY"
	RightPinky     Joint = "RIGHT_PINKY"
	LeftIndex      Joint = "LEFT_INDEX"
	RightIndex     Joint = "RIGHT_INDEX"
	LeftThumb      Joint = "LEFT_THUMB"
	RightThumb     Joint = "RIGHT_THUMB"
	LeftHip        Joint = "LEFT_HIP"
	RightHip       Joint = "RIGHT_HIP"
	LeftKnee       Joint = "LEFT_KNEE"
	RightKnee      Joint = "RIGHT_KNEE"
	LeftAnkle      Joint = "LEFT_ANKLE"
	RightAnkle     Joint = "RIGHT_ANKLE"
	LeftHeel       Joint = "LEFT_HEEL"
	RightHeel      Joint = "RIGHT_HEEL"
	LeftFootIndex  Joint = "LEFT_FOOT_INDEX"
	RightFootIndex Joint = "RIGHT_FOOT_INDEX"
)

// Joints lists the vocabulary in MediaPipe index order.
var Joints = [...]Joint{
	Nose,
	LeftEyeInner, LeftEye, LeftEyeOuter,
	RightEyeInner, RightEye, RightEyeOuter,
	LeftEar, RightEar,
	MouthLeft, MouthRight,
	LeftShoulder, RightShoulder,
	LeftElbow, RightElbow,
	LeftWrist, RightWrist,
	LeftPinky, RightPinky,
	LeftIndex, RightIndex,
	LeftThumb, RightThumb,
	LeftHip, RightHip,
	LeftKnee, RightKnee,
	LeftAnkle, RightAnkle,
	LeftHeel, RightHeel,
	LeftFootIndex, RightFootIndex,
}

var jointsByName = func() map[string]Joint {
	m := make(map[string]Joint, len(Joints))
	for _, j := range Joints {
		m[string(j)] = j
	}
	return m
}()

// ParseJoint resolves a joint name case-insensitively ("left_knee" and
// "LEFT_KNEE" are the same joint).
func ParseJoint(name string) (Joint, bool) {
	j, ok := jointsByName[strings.ToUpper(strings.TrimSpace(name))]
	return j, ok
}

// Index returns the MediaPipe landmark index of j, or -1 if j is not part of
// the vocabulary.
func (j Joint) Index() int {
	for i, v := range Joints {
		if v == j {
			return i
		}
	}
	return -1
}
