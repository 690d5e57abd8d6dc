package node

// Channel is one typed data lane.
type Channel struct {
	Name string
	Type ChannelType
}

// Bus is an ordered group of channels.
type Bus struct {
	Name     string
	Channels []Channel
}

// NewBus returns a bus whose channels all have type t.
func NewBus(name string, t ChannelType, channels ...string) Bus {
	b := Bus{Name: name, Channels: make([]Channel, len(channels))}
	for i, ch := range channels {
		b.Channels[i] = Channel{Name: ch, Type: t}
	}

	return b
}

// Route locates a channel inside a node's input buses.
type Route struct {
	Bus     int
	Channel int
}

// Ports declares a node's input and output buses.
//
// Connections address channels by flat index: the position of the channel
// in the concatenation of all buses on that side.
type Ports struct {
	Inputs  []Bus
	Outputs []Bus
}

// NumInputs returns the number of input channels over all buses.
func (p Ports) NumInputs() int { return countChannels(p.Inputs) }

// NumOutputs returns the number of output channels over all buses.
func (p Ports) NumOutputs() int { return countChannels(p.Outputs) }

// Input returns the input channel at flat index i.
func (p Ports) Input(i int) (Channel, bool) { return channelAt(p.Inputs, i) }

// Output returns the output channel at flat index i.
func (p Ports) Output(i int) (Channel, bool) { return channelAt(p.Outputs, i) }

// InputIndex converts a route to a flat input index.
func (p Ports) InputIndex(r Route) (int, bool) {
	if r.Bus < 0 || r.Bus >= len(p.Inputs) {
		return 0, false
	}

	if r.Channel < 0 || r.Channel >= len(p.Inputs[r.Bus].Channels) {
		return 0, false
	}

	flat := r.Channel
	for _, b := range p.Inputs[:r.Bus] {
		flat += len(b.Channels)
	}

	return flat, true
}

// LocateInput converts a flat input index to a route.
func (p Ports) LocateInput(flat int) (Route, bool) {
	if flat < 0 {
		return Route{}, false
	}

	for bi, b := range p.Inputs {
		if flat < len(b.Channels) {
			return Route{Bus: bi, Channel: flat}, true
		}

		flat -= len(b.Channels)
	}

	return Route{}, false
}

func countChannels(buses []Bus) int {
	n := 0
	for _, b := range buses {
		n += len(b.Channels)
	}

	return n
}

func channelAt(buses []Bus, i int) (Channel, bool) {
	if i < 0 {
		return Channel{}, false
	}

	for _, b := range buses {
		if i < len(b.Channels) {
			return b.Channels[i], true
		}

		i -= len(b.Channels)
	}

	return Channel{}, false
}
