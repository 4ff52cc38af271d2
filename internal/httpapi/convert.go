package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/jtalmeidaAdvir/WhatsappTimeTrackerV2/internal/timetracker/store"
	"github.com/jtalmeidaAdvir/WhatsappTimeTrackerV2/internal/timetracker/types"
)

// ── Inbound JSON ─────────────────────────────────────────────────────────────

// inboundJSON accepts both the flat form {"phone","text","location"} and
// the bridge's webhook form where text is {"message": "..."}.
type inboundJSON struct {
	Phone    string          `json:"phone"`
	Text     json.RawMessage `json:"text"`
	Message  string          `json:"message"`
	Location *locationJSON   `json:"location"`
	FromMe   bool            `json:"fromMe"`
	IsGroup  bool            `json:"isGroup"`
}

type locationJSON struct {
	Latitude  coordinate `json:"latitude"`
	Longitude coordinate `json:"longitude"`
	Address   string     `json:"address"`
}

// coordinate decodes a JSON number or a numeric string. null and "" leave it
// unset.
type coordinate struct {
	value float64
	set   bool
}

func (c *coordinate) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if string(b) == "null" {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		v, ok, err := parseCoordinate(s)
		if err != nil {
			return err
		}
		c.value, c.set = v, ok
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	c.value, c.set = v, true
	return nil
}

func parseCoordinate(s string) (float64, bool, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false, fmt.Errorf("coordinate %q: %w", s, err)
	}
	return v, true, nil
}

// newLocation returns nil when either coordinate is missing. Coordinates
// must be finite and inside the WGS84 ranges.
func newLocation(lat, lng coordinate, address string) (*types.Location, error) {
	if !lat.set || !lng.set {
		return nil, nil
	}
	if math.IsNaN(lat.value) || math.IsInf(lat.value, 0) || lat.value < -90 || lat.value > 90 {
		return nil, fmt.Errorf("latitude %v out of range", lat.value)
	}
	if math.IsNaN(lng.value) || math.IsInf(lng.value, 0) || lng.value < -180 || lng.value > 180 {
		return nil, fmt.Errorf("longitude %v out of range", lng.value)
	}
	return &types.Location{Latitude: lat.value, Longitude: lng.value, Address: address}, nil
}

func (in inboundJSON) toMessage() (types.InboundMessage, error) {
	msg := types.InboundMessage{Phone: in.Phone, Text: in.Message}

	if len(in.Text) > 0 && string(in.Text) != "null" {
		var s string
		if err := json.Unmarshal(in.Text, &s); err == nil {
			msg.Text = s
		} else {
			var obj struct {
				Message string `json:"message"`
			}
			if err := json.Unmarshal(in.Text, &obj); err != nil {
				return types.InboundMessage{}, fmt.Errorf("text: %w", err)
			}
			msg.Text = obj.Message
		}
	}

	if in.Location != nil {
		loc, err := newLocation(in.Location.Latitude, in.Location.Longitude, in.Location.Address)
		if err != nil {
			return types.InboundMessage{}, err
		}
		msg.Location = loc
	}
	return msg, nil
}

// ── Inbound protobuf ─────────────────────────────────────────────────────────

// inboundFromStruct reads the same fields as the flat JSON form from a
// google.protobuf.Struct.
func inboundFromStruct(s *structpb.Struct) (types.InboundMessage, error) {
	f := s.GetFields()
	msg := types.InboundMessage{
		Phone: f["phone"].GetStringValue(),
		Text:  f["text"].GetStringValue(),
	}

	if loc := f["location"].GetStructValue(); loc != nil {
		lf := loc.GetFields()
		lat, err := structCoordinate(lf["latitude"])
		if err != nil {
			return types.InboundMessage{}, fmt.Errorf("latitude: %w", err)
		}
		lng, err := structCoordinate(lf["longitude"])
		if err != nil {
			return types.InboundMessage{}, fmt.Errorf("longitude: %w", err)
		}
		msg.Location, err = newLocation(lat, lng, lf["address"].GetStringValue())
		if err != nil {
			return types.InboundMessage{}, err
		}
	}
	return msg, nil
}

// structCoordinate leaves the coordinate unset for a missing or null value.
func structCoordinate(v *structpb.Value) (coordinate, error) {
	switch k := v.GetKind().(type) {
	case nil, *structpb.Value_NullValue:
		return coordinate{}, nil
	case *structpb.Value_NumberValue:
		return coordinate{value: k.NumberValue, set: true}, nil
	case *structpb.Value_StringValue:
		f, ok, err := parseCoordinate(k.StringValue)
		return coordinate{value: f, set: ok}, err
	}
	return coordinate{}, fmt.Errorf("not a number")
}

func replyToStruct(r webhookResponse) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"ok":      r.OK,
		"command": r.Command,
		"reply":   r.Reply,
		"sent":    r.Sent,
	})
}

// ── Audit log ────────────────────────────────────────────────────────────────

func messageFromRecord(m store.MessageRecord) types.WhatsappMessage {
	return types.WhatsappMessage{
		ID:        m.ID,
		Phone:     m.Phone,
		Message:   m.Message,
		Command:   m.Command,
		Processed: m.Processed,
		Response:  m.Response,
		Timestamp: m.ReceivedAt.UTC().Format(time.RFC3339Nano),
	}
}
