package audio

// request is the closed set of commands the worker understands.
type request interface {
	kind() string
}

type (
	inputDevicesRequest  struct{}
	outputDevicesRequest struct{}
	playbackRequest      struct{ samples []float32 }
	recordRequest        struct{ samples []float32 }
)

func (inputDevicesRequest) kind() string  { return "input_devices" }
func (outputDevicesRequest) kind() string { return "output_devices" }
func (playbackRequest) kind() string      { return "playback" }
func (recordRequest) kind() string        { return "record" }

// response mirrors request one to one.
type response interface {
	kind() string
}

type (
	inputDevicesResponse  struct{ names []string }
	outputDevicesResponse struct{ names []string }
	playbackResponse      struct{}
	recordResponse        struct{}
)

func (inputDevicesResponse) kind() string  { return "input_devices" }
func (outputDevicesResponse) kind() string { return "output_devices" }
func (playbackResponse) kind() string      { return "playback" }
func (recordResponse) kind() string        { return "record" }

type reply struct {
	resp response
	err  error
}

// call pairs one request with the channel its single reply goes to.
// The reply channel has capacity 1 so the worker never blocks on a caller
// that stopped listening.
type call struct {
	req   request
	reply chan reply
}

func newCall(req request) call {
	return call{req: req, reply: make(chan reply, 1)}
}

// respond delivers the one and only reply for c.
func (c call) respond(resp response, err error) {
	select {
	case c.reply <- reply{resp: resp, err: err}:
	default:
	}
}

// mismatch panics: the worker answered a request with the wrong response
// kind, which only a broken worker can do.
func mismatch(req request, resp response) {
	got := "nil"
	if resp != nil {
		got = resp.kind()
	}
	panic("audio: worker answered " + req.kind() + " request with " + got + " response")
}
