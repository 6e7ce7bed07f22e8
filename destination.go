package pdf

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
)

// DestResult is the mutable output of parseDestDictionary, matching
// spec §4.9's "{url, unsafeUrl, dest, newWindow, action}" result
// shape.
type DestResult struct {
	URL       string
	UnsafeURL string
	Dest      Value
	NewWindow bool
	Action    string
}

var jsActionPattern = regexp.MustCompile(`(?i)^\s*(app\.launchURL|window\.open)\(['"]([^'"]*)['"](?:,\s*(\w+))?\)`)

// parseDestDictionary interprets v as either an action dict (/A), a
// dict naming a destination (/Dest), or a direct destination array,
// and writes the result into out. Grounded in spec §4.9's description
// of the original's parseDestDictionary; there is no teacher or
// example-repo counterpart, since none of the example repos implement
// link/action resolution.
func parseDestDictionary(c *Catalog, v Value, docBaseURL string, out *DestResult) {
	switch v.Kind() {
	case ArrayKind:
		out.Dest = v
	case DictKind:
		if a, ok := v.Lookup("A"); ok && a.Kind() == DictKind {
			applyAction(c, a, docBaseURL, out)
			return
		}
		if d, ok := v.Lookup("Dest"); ok {
			out.Dest = resolveNamedDest(c, d)
		}
	}
}

func resolveNamedDest(c *Catalog, d Value) Value {
	switch d.Kind() {
	case NameKind:
		return c.GetDestination(d.Name())
	case StringKind:
		return c.GetDestination(d.RawString())
	default:
		return d
	}
}

func applyAction(c *Catalog, action Value, docBaseURL string, out *DestResult) {
	switch action.Key("S").Name() {
	case "URI":
		uri := action.Key("URI")
		var raw string
		switch uri.Kind() {
		case StringKind:
			raw = uri.Text()
		case NameKind:
			raw = "/" + uri.Name()
		}
		if strings.HasPrefix(raw, "www.") {
			raw = "http://" + raw
		}
		setDestURL(out, raw, docBaseURL)

	case "GoTo":
		out.Dest = action.Key("D")

	case "Launch", "GoToR":
		f := action.Key("F")
		var base string
		if f.Kind() == DictKind {
			base = f.Key("F").Text()
		} else {
			base = f.Text()
		}
		if d, ok := action.Lookup("D"); ok {
			base += "#" + destFragment(d)
		}
		setDestURL(out, base, docBaseURL)
		if nw, ok := action.Lookup("NewWindow"); ok && nw.Kind() == BoolKind {
			out.NewWindow = nw.Bool()
		}

	case "Named":
		out.Action = action.Key("N").Name()

	case "JavaScript":
		applyJavaScriptAction(action, docBaseURL, out)

	default:
		slog.Warn("unrecognized action type", slog.String("S", action.Key("S").Name()))
	}
}

func applyJavaScriptAction(action Value, docBaseURL string, out *DestResult) {
	js := action.Key("JS")
	var text string
	if js.Kind() == StreamKind {
		rd := js.Reader()
		data, err := io.ReadAll(rd)
		rd.Close()
		if err != nil {
			return
		}
		text = string(data)
	} else {
		text = js.Text()
	}

	m := jsActionPattern.FindStringSubmatch(text)
	if m == nil {
		return
	}
	setDestURL(out, m[2], docBaseURL)
	if strings.EqualFold(m[1], "app.launchURL") && len(m) > 3 && m[3] == "true" {
		out.NewWindow = true
	}
}

// destFragment renders a remote /D entry to append to a GoToR/Launch
// URL as a fragment: a string verbatim, an array JSON-stringified.
func destFragment(d Value) string {
	switch d.Kind() {
	case StringKind:
		return d.Text()
	case ArrayKind:
		data, err := json.Marshal(valueToJSON(d))
		if err != nil {
			return ""
		}
		return string(data)
	default:
		return ""
	}
}

func valueToJSON(v Value) any {
	switch v.Kind() {
	case BoolKind:
		return v.Bool()
	case IntegerKind:
		return v.Int64()
	case RealKind:
		return v.Float64()
	case NameKind:
		return v.Name()
	case StringKind:
		return v.Text()
	case ArrayKind:
		out := make([]any, v.Len())
		for i := range out {
			out[i] = valueToJSON(v.Index(i))
		}
		return out
	default:
		return nil
	}
}

// setDestURL records raw as UnsafeURL verbatim, then attempts to
// normalize it to an absolute URL against base, per spec §4.9's "URL
// post-processing" step. The fragment (everything from the first "#")
// is resolved and reattached literally rather than through
// url.URL.String()'s percent-encoding, since a GoToR/Launch fragment
// is a JSON-stringified destination array, not a URI fragment, and
// must come out byte-for-byte as produced by destFragment.
func setDestURL(out *DestResult, raw, base string) {
	if raw == "" {
		return
	}
	out.UnsafeURL = raw

	path, fragment, hasFragment := strings.Cut(raw, "#")

	parsed, err := url.Parse(path)
	if err != nil {
		return
	}

	resolved := parsed
	if base != "" {
		if baseURL, err := url.Parse(base); err == nil {
			resolved = baseURL.ResolveReference(parsed)
		}
	}

	out.URL = resolved.String()
	if hasFragment {
		out.URL += "#" + fragment
	}
}
