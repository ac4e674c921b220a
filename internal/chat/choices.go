package chat

// ContentType is what the user chose to generate.
type ContentType string

const (
	TypeAudio ContentType = "audio"
	TypeMusic ContentType = "music"
)

// MaxElements caps how many sound elements a soundscape may combine.
const MaxElements = 3

// AudioChoices accumulates the soundscape branch answers. Values, not
// pointers: the reducer copies on write so past states stay intact.
type AudioChoices struct {
	Atmosphere  string
	Mood        string
	Elements    []string
	ExtraInputs []string
}

// HasElement reports whether el is currently selected.
func (c AudioChoices) HasElement(el string) bool {
	for _, e := range c.Elements {
		if e == el {
			return true
		}
	}
	return false
}

// ToggleElement returns a copy with el removed if present, or appended if
// there is room. A fourth distinct element is a no-op. Selection order is
// preserved.
func (c AudioChoices) ToggleElement(el string) AudioChoices {
	out := c.clone()
	for i, e := range out.Elements {
		if e == el {
			out.Elements = append(out.Elements[:i:i], out.Elements[i+1:]...)
			return out
		}
	}
	if len(out.Elements) >= MaxElements {
		return out
	}
	out.Elements = append(out.Elements, el)
	return out
}

// AddExtraInput returns a copy with a free-text element appended.
func (c AudioChoices) AddExtraInput(text string) AudioChoices {
	out := c.clone()
	out.ExtraInputs = append(out.ExtraInputs, text)
	return out
}

// Complete reports whether enough has been collected to generate audio.
func (c AudioChoices) Complete() bool {
	return c.Atmosphere != "" && c.Mood != "" && (len(c.Elements) > 0 || len(c.ExtraInputs) > 0)
}

func (c AudioChoices) clone() AudioChoices {
	out := c
	out.Elements = append([]string(nil), c.Elements...)
	out.ExtraInputs = append([]string(nil), c.ExtraInputs...)
	return out
}

// MusicChoices accumulates the music branch answers.
type MusicChoices struct {
	Genre       string
	Instruments []string
	Tempo       string
	Usage       string
}

// SelectInstrument returns a copy with the instrument selection replaced by
// name. The most recent pick wins.
func (c MusicChoices) SelectInstrument(name string) MusicChoices {
	out := c
	out.Instruments = []string{name}
	return out
}

// Complete reports whether enough has been collected to generate music.
func (c MusicChoices) Complete() bool {
	return c.Genre != "" && len(c.Instruments) > 0 && c.Tempo != "" && c.Usage != ""
}

func (c MusicChoices) clone() MusicChoices {
	out := c
	out.Instruments = append([]string(nil), c.Instruments...)
	return out
}
