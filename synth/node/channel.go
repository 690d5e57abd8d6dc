package node

import "fmt"

// ChannelType is the declared signal class of a channel.
type ChannelType uint8

const (
	// Audio carries audio-rate signal.
	Audio ChannelType = iota
	// CV carries control voltage. CV is the modulation class: it is the only
	// class that may close a feedback loop.
	CV
	// Gate carries a held on/off level.
	Gate
	// Trigger carries single-sample pulses.
	Trigger
	// Raw carries untyped data and connects to anything.
	Raw
)

var channelTypeNames = [...]string{"audio", "cv", "gate", "trigger", "raw"}

func (t ChannelType) String() string {
	if int(t) < len(channelTypeNames) {
		return channelTypeNames[t]
	}

	return fmt.Sprintf("channel(%d)", uint8(t))
}

// IsModulation reports whether t belongs to the modulation class.
func (t ChannelType) IsModulation() bool {
	return t == CV
}

// Compatible reports whether a source channel of type src may feed a
// destination channel of type dst.
func Compatible(src, dst ChannelType) bool {
	if src == Raw || dst == Raw || src == dst {
		return true
	}

	switch src {
	case Audio:
		return dst == CV
	case CV:
		return dst == Audio
	case Gate:
		return dst == Trigger || dst == CV
	case Trigger:
		return dst == Gate
	default:
		return false
	}
}
