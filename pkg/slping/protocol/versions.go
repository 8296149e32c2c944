package protocol

import "strconv"

type Version int32

const (
	Version1_18_2 Version = 758
	Version1_19   Version = 759
	Version1_19_3 Version = 761
	Version1_20_2 Version = 764
	Version1_20_5 Version = 766
	Version1_21   Version = 767
	Version1_21_2 Version = 768

	// DefaultVersion is announced in handshakes unless told otherwise.
	DefaultVersion = Version1_21_2
)

func (v Version) Name() string {
	switch v {
	case Version1_18_2:
		return "1.18.2"
	case Version1_19:
		return "1.19"
	case Version1_19_3:
		return "1.19.3"
	case Version1_20_2:
		return "1.20.2"
	case Version1_20_5:
		return "1.20.5"
	case Version1_21:
		return "1.21"
	case Version1_21_2:
		return "1.21.2"
	default:
		return strconv.Itoa(int(v))
	}
}

func (v Version) ProtocolNumber() int32 {
	return int32(v)
}
