package expression

// ChannelID names a blend-shape channel reported by the face tracker.
// The constants below follow the ARKit vocabulary; any other name is accepted as-is.
type ChannelID string

// String returns the raw channel name.
func (c ChannelID) String() string { return string(c) }

// Blend-shape channels.
const (
	ChannelBrowDownLeft        ChannelID = "browDownLeft"
	ChannelBrowDownRight       ChannelID = "browDownRight"
	ChannelBrowInnerUp         ChannelID = "browInnerUp"
	ChannelBrowOuterUpLeft     ChannelID = "browOuterUpLeft"
	ChannelBrowOuterUpRight    ChannelID = "browOuterUpRight"
	ChannelCheekPuff           ChannelID = "cheekPuff"
	ChannelCheekSquintLeft     ChannelID = "cheekSquintLeft"
	ChannelCheekSquintRight    ChannelID = "cheekSquintRight"
	ChannelEyeBlinkLeft        ChannelID = "eyeBlinkLeft"
	ChannelEyeBlinkRight       ChannelID = "eyeBlinkRight"
	ChannelEyeLookDownLeft     ChannelID = "eyeLookDownLeft"
	ChannelEyeLookDownRight    ChannelID = "eyeLookDownRight"
	ChannelEyeLookInLeft       ChannelID = "eyeLookInLeft"
	ChannelEyeLookInRight      ChannelID = "eyeLookInRight"
	ChannelEyeLookOutLeft      ChannelID = "eyeLookOutLeft"
	ChannelEyeLookOutRight     ChannelID = "eyeLookOutRight"
	ChannelEyeLookUpLeft       ChannelID = "eyeLookUpLeft"
	ChannelEyeLookUpRight      ChannelID = "eyeLookUpRight"
	ChannelEyeSquintLeft       ChannelID = "eyeSquintLeft"
	ChannelEyeSquintRight      ChannelID = "eyeSquintRight"
	ChannelEyeWideLeft         ChannelID = "eyeWideLeft"
	ChannelEyeWideRight        ChannelID = "eyeWideRight"
	ChannelJawForward          ChannelID = "jawForward"
	ChannelJawLeft             ChannelID = "jawLeft"
	ChannelJawOpen             ChannelID = "jawOpen"
	ChannelJawRight            ChannelID = "jawRight"
	ChannelMouthClose          ChannelID = "mouthClose"
	ChannelMouthDimpleLeft     ChannelID = "mouthDimpleLeft"
	ChannelMouthDimpleRight    ChannelID = "mouthDimpleRight"
	ChannelMouthFrownLeft      ChannelID = "mouthFrownLeft"
	ChannelMouthFrownRight     ChannelID = "mouthFrownRight"
	ChannelMouthFunnel         ChannelID = "mouthFunnel"
	ChannelMouthLeft           ChannelID = "mouthLeft"
	ChannelMouthLowerDownLeft  ChannelID = "mouthLowerDownLeft"
	ChannelMouthLowerDownRight ChannelID = "mouthLowerDownRight"
	ChannelMouthPressLeft      ChannelID = "mouthPressLeft"
	ChannelMouthPressRight     ChannelID = "mouthPressRight"
	ChannelMouthPucker         ChannelID = "mouthPucker"
	ChannelMouthRight          ChannelID = "mouthRight"
	ChannelMouthRollLower      ChannelID = "mouthRollLower"
	ChannelMouthRollUpper      ChannelID = "mouthRollUpper"
	ChannelMouthShrugLower     ChannelID = "mouthShrugLower"
	ChannelMouthShrugUpper     ChannelID = "mouthShrugUpper"
	ChannelMouthSmileLeft      ChannelID = "mouthSmileLeft"
	ChannelMouthSmileRight     ChannelID = "mouthSmileRight"
	ChannelMouthStretchLeft    ChannelID = "mouthStretchLeft"
	ChannelMouthStretchRight   ChannelID = "mouthStretchRight"
	ChannelMouthUpperUpLeft    ChannelID = "mouthUpperUpLeft"
	ChannelMouthUpperUpRight   ChannelID = "mouthUpperUpRight"
	ChannelNoseSneerLeft       ChannelID = "noseSneerLeft"
	ChannelNoseSneerRight      ChannelID = "noseSneerRight"
	ChannelTongueOut           ChannelID = "tongueOut"
)

// Channels lists every known blend-shape channel in alphabetical order.
func Channels() []ChannelID {
	return []ChannelID{
		ChannelBrowDownLeft, ChannelBrowDownRight, ChannelBrowInnerUp, ChannelBrowOuterUpLeft,
		ChannelBrowOuterUpRight, ChannelCheekPuff, ChannelCheekSquintLeft, ChannelCheekSquintRight,
		ChannelEyeBlinkLeft, ChannelEyeBlinkRight, ChannelEyeLookDownLeft, ChannelEyeLookDownRight,
		ChannelEyeLookInLeft, ChannelEyeLookInRight, ChannelEyeLookOutLeft, ChannelEyeLookOutRight,
		ChannelEyeLookUpLeft, ChannelEyeLookUpRight, ChannelEyeSquintLeft, ChannelEyeSquintRight,
		ChannelEyeWideLeft, ChannelEyeWideRight, ChannelJawForward, ChannelJawLeft,
		ChannelJawOpen, ChannelJawRight, ChannelMouthClose, ChannelMouthDimpleLeft,
		ChannelMouthDimpleRight, ChannelMouthFrownLeft, ChannelMouthFrownRight, ChannelMouthFunnel,
		ChannelMouthLeft, ChannelMouthLowerDownLeft, ChannelMouthLowerDownRight, ChannelMouthPressLeft,
		ChannelMouthPressRight, ChannelMouthPucker, ChannelMouthRight, ChannelMouthRollLower,
		ChannelMouthRollUpper, ChannelMouthShrugLower, ChannelMouthShrugUpper, ChannelMouthSmileLeft,
		ChannelMouthSmileRight, ChannelMouthStretchLeft, ChannelMouthStretchRight, ChannelMouthUpperUpLeft,
		ChannelMouthUpperUpRight, ChannelNoseSneerLeft, ChannelNoseSneerRight, ChannelTongueOut,
	}
}

// IsKnownChannel reports whether c is one of the tracker's standard channels.
func IsKnownChannel(c ChannelID) bool {
	for _, known := range Channels() {
		if known == c {
			return true
		}
	}
	return false
}
