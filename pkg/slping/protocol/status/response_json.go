package status

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/gofrs/uuid"
)

// ErrJSONDeserialization is returned when a status response payload is not
// a valid status document.
var ErrJSONDeserialization = errors.New("status json deserialization failed")

// ParseResponseJSON decodes the JSON payload of a ClientBoundResponse.
// The version and players objects are required; everything else is optional.
func ParseResponseJSON(s string) (ResponseJSON, error) {
	var resp ResponseJSON
	if err := json.Unmarshal([]byte(s), &resp); err != nil {
		return ResponseJSON{}, fmt.Errorf("%w: %w", ErrJSONDeserialization, err)
	}

	if resp.missing != "" {
		return ResponseJSON{}, fmt.Errorf("%w: missing field %q", ErrJSONDeserialization, resp.missing)
	}
	return resp, nil
}

type ResponseJSON struct {
	Version VersionJSON `json:"version"`
	Players PlayersJSON `json:"players"`
	// Either a plain string or a chat component
	Description Description `json:"description"`
	Favicon     *string     `json:"favicon,omitempty"`
	Mods        []ModJSON   `json:"mods"`
	// Added since 1.19
	PreviewsChat bool `json:"previewsChat,omitempty"`
	// Added since 1.19.1
	EnforcesSecureChat bool `json:"enforcesSecureChat,omitempty"`
	// FMLModInfo is sent by FML servers.
	FMLModInfo *FMLModInfoJSON `json:"modinfo,omitempty"`
	// FML2ForgeData is sent by FML2 servers.
	FML2ForgeData *FML2ForgeDataJSON `json:"forgeData,omitempty"`

	// Extra holds every top-level field not listed above.
	Extra map[string]json.RawMessage `json:"-"`

	missing string
}

var (
	requiredResponseKeys = []string{"version", "players"}
	knownResponseKeys    = []string{
		"version", "players", "description", "favicon", "mods",
		"previewsChat", "enforcesSecureChat", "modinfo", "forgeData",
	}
)

func (r *ResponseJSON) UnmarshalJSON(b []byte) error {
	type responseJSON ResponseJSON
	var resp responseJSON
	if err := json.Unmarshal(b, &resp); err != nil {
		return err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return err
	}

	for _, k := range requiredResponseKeys {
		if _, ok := fields[k]; !ok {
			resp.missing = k
			break
		}
	}

	for _, k := range knownResponseKeys {
		delete(fields, k)
	}
	if len(fields) > 0 {
		resp.Extra = fields
	}

	if resp.Players.Sample == nil {
		resp.Players.Sample = []PlayerSampleJSON{}
	}
	if resp.Mods == nil {
		resp.Mods = []ModJSON{}
	}

	*r = ResponseJSON(resp)
	return nil
}

func (r ResponseJSON) MarshalJSON() ([]byte, error) {
	type responseJSON ResponseJSON
	b, err := json.Marshal(responseJSON(r))
	if err != nil || len(r.Extra) == 0 {
		return b, err
	}

	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(b, &fields); err != nil {
		return nil, err
	}
	for k, v := range r.Extra {
		if _, ok := fields[k]; !ok {
			fields[k] = v
		}
	}
	return json.Marshal(fields)
}

// ModIDs lists the ids of all mods the server announced, regardless of
// which mod loader format it used.
func (r ResponseJSON) ModIDs() []string {
	ids := make([]string, 0, len(r.Mods))
	for _, m := range r.Mods {
		ids = append(ids, m.ID)
	}
	if r.FMLModInfo != nil {
		for _, m := range r.FMLModInfo.ModList {
			ids = append(ids, m.ID)
		}
	}
	if r.FML2ForgeData != nil {
		for _, m := range r.FML2ForgeData.Mods {
			ids = append(ids, m.ID)
		}
	}
	return ids
}

type VersionJSON struct {
	Name     string `json:"name"`
	Protocol int32  `json:"protocol"`
}

type PlayersJSON struct {
	Max    int32              `json:"max"`
	Online int32              `json:"online"`
	Sample []PlayerSampleJSON `json:"sample"`
}

type PlayerSampleJSON struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// UUID parses the player id. Servers that hide their player list often
// send placeholder ids, so callers should expect an error.
func (p PlayerSampleJSON) UUID() (uuid.UUID, error) {
	return uuid.FromString(p.ID)
}

type ModJSON struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// FMLModInfoJSON is a part of the FML Server List Ping.
type FMLModInfoJSON struct {
	LoaderType string       `json:"type"`
	ModList    []FMLModJSON `json:"modList"`
}

type FMLModJSON struct {
	ID      string `json:"modid"`
	Version string `json:"version"`
}

// FML2ForgeDataJSON is a part of the FML2 Server List Ping.
type FML2ForgeDataJSON struct {
	Channels          []FML2ChannelsJSON `json:"channels"`
	Mods              []FML2ModJSON      `json:"mods"`
	FMLNetworkVersion int                `json:"fmlNetworkVersion"`
	D                 string             `json:"d,omitempty"`
}

type FML2ChannelsJSON struct {
	Res      string `json:"res"`
	Version  string `json:"version"`
	Required bool   `json:"required"`
}

type FML2ModJSON struct {
	ID     string `json:"modId"`
	Marker string `json:"modmarker"`
}

// Description is the message of the day. Servers send either a plain
// string or a chat component; Raw is only set for the latter.
type Description struct {
	Text string
	Raw  json.RawMessage
}

func (d *Description) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		d.Raw = nil
		return json.Unmarshal(b, &d.Text)
	}

	if string(b) == "null" {
		*d = Description{}
		return nil
	}

	var component any
	if err := json.Unmarshal(b, &component); err != nil {
		return err
	}
	d.Raw = append(json.RawMessage(nil), b...)
	d.Text = chatText(component)
	return nil
}

func (d Description) MarshalJSON() ([]byte, error) {
	if d.Raw != nil {
		return d.Raw, nil
	}
	return json.Marshal(d.Text)
}

// IsComponent reports whether the description was sent as a chat component.
func (d Description) IsComponent() bool {
	return d.Raw != nil
}

func (d Description) String() string {
	return d.Text
}

// chatText flattens a chat component into plain text.
func chatText(v any) string {
	var sb strings.Builder
	writeChatText(&sb, v)
	return sb.String()
}

func writeChatText(sb *strings.Builder, v any) {
	switch c := v.(type) {
	case string:
		sb.WriteString(c)
	case []any:
		for _, e := range c {
			writeChatText(sb, e)
		}
	case map[string]any:
		if text, ok := c["text"].(string); ok {
			sb.WriteString(text)
		} else if key, ok := c["translate"].(string); ok {
			sb.WriteString(key)
		}
		if extra, ok := c["extra"]; ok {
			writeChatText(sb, extra)
		}
	}
}
