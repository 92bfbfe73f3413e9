package uinput

import (
	"errors"
	"io"
	"unsafe"

	"github.com/tamzrod/padbridge/internal/evdev"
)

// rumbleRequestBacklog bounds in-flight FF requests; uploads and erases
// block the reader until answered anyway, so a small buffer is plenty.
const rumbleRequestBacklog = 8

// RequestKind discriminates the force-feedback control requests.
type RequestKind int

const (
	RequestUpload RequestKind = iota
	RequestErase
	RequestPlay
	RequestGain
)

// Reply answers an upload or erase. Status uses kernel conventions: 0 on
// success, a negative errno on failure. EffectID carries the assigned slot
// for uploads.
type Reply struct {
	Status   int32
	EffectID int32
}

// Request is one decoded FF control request from the host. Upload and erase
// requests must be answered on Reply before the kernel gets control back;
// play and gain carry no reply channel.
type Request struct {
	Kind     RequestKind
	Effect   evdev.Effect // upload only
	EffectID int32        // erase and play
	Value    int32        // play repeat count, or gain
	Reply    chan<- Reply
}

// Requests is the FF control channel. ServeFF must be running for it to
// carry anything.
func (d *Device) Requests() <-chan Request {
	return d.requests
}

// ServeFF reads the device handle for FF control traffic and forwards it on
// the request channel. It blocks until the device is destroyed; run it on
// its own goroutine.
func (d *Device) ServeFF() {
	buf := make([]byte, evdev.EventSize)
	for {
		if _, err := io.ReadFull(d.f, buf); err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrClosedPipe) {
				d.log.WithError(err).Debug("ff reader stopped")
			}
			return
		}
		ev, err := evdev.UnmarshalEvent(buf)
		if err != nil {
			continue
		}

		switch ev.Type {
		case evdev.EV_UINPUT:
			switch ev.Code {
			case evdev.UI_FF_UPLOAD:
				d.handleUpload(uint32(ev.Value))
			case evdev.UI_FF_ERASE:
				d.handleErase(uint32(ev.Value))
			}
		case evdev.EV_FF:
			if ev.Code == evdev.FF_GAIN {
				d.requests <- Request{Kind: RequestGain, Value: ev.Value}
			} else {
				d.requests <- Request{
					Kind:     RequestPlay,
					EffectID: int32(ev.Code),
					Value:    ev.Value,
				}
			}
		}
	}
}

// handleUpload runs the begin/end ioctl pair around a synchronous exchange
// with the runtime: the kernel blocks the requesting application until
// UI_END_FF_UPLOAD carries back a status and the durable effect id.
func (d *Device) handleUpload(requestID uint32) {
	var up ffUpload
	up.RequestID = requestID
	if err := ioctlPtr(d.f.Fd(), uiBeginFFUpload, unsafe.Pointer(&up)); err != nil {
		d.log.WithError(err).Error("UI_BEGIN_FF_UPLOAD failed")
		return
	}

	reply := make(chan Reply, 1)
	d.requests <- Request{Kind: RequestUpload, Effect: up.Effect, Reply: reply}
	r := <-reply

	up.Retval = r.Status
	if r.Status == 0 {
		up.Effect.ID = int16(r.EffectID)
	}
	if err := ioctlPtr(d.f.Fd(), uiEndFFUpload, unsafe.Pointer(&up)); err != nil {
		d.log.WithError(err).Error("UI_END_FF_UPLOAD failed")
	}
}

func (d *Device) handleErase(requestID uint32) {
	var er ffErase
	er.RequestID = requestID
	if err := ioctlPtr(d.f.Fd(), uiBeginFFErase, unsafe.Pointer(&er)); err != nil {
		d.log.WithError(err).Error("UI_BEGIN_FF_ERASE failed")
		return
	}

	reply := make(chan Reply, 1)
	d.requests <- Request{
		Kind:     RequestErase,
		EffectID: int32(er.EffectID),
		Reply:    reply,
	}
	r := <-reply

	er.Retval = r.Status
	if err := ioctlPtr(d.f.Fd(), uiEndFFErase, unsafe.Pointer(&er)); err != nil {
		d.log.WithError(err).Error("UI_END_FF_ERASE failed")
	}
}
