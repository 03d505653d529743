package chrome

import (
	"testing"

	"github.com/go-rod/rod/lib/proto"

	"github.com/mj1618/a11y-lens/internal/platform"
)

func TestLifecycleEvent(t *testing.T) {
	tests := []struct {
		wait platform.WaitStrategy
		want proto.PageLifecycleEventName
	}{
		{platform.WaitNetworkIdle, proto.PageLifecycleEventNameNetworkIdle},
		{platform.WaitDOMContentLoaded, proto.PageLifecycleEventNameDOMContentLoaded},
		{platform.WaitLoad, proto.PageLifecycleEventNameLoad},
	}
	for _, tt := range tests {
		if got := lifecycleEvent(tt.wait); got != tt.want {
			t.Errorf("lifecycleEvent(%s) = %s, want %s", tt.wait, got, tt.want)
		}
	}
}

func TestProviderRegistration(t *testing.T) {
	p, err := platform.NewProvider(platform.LaunchOptions{Stealth: true})
	if err != nil {
		t.Fatal(err)
	}
	l, ok := p.Launcher.(*Launcher)
	if !ok {
		t.Fatalf("launcher type = %T, want *Launcher", p.Launcher)
	}
	if !l.opts.Stealth {
		t.Error("launch options not forwarded")
	}
}

func TestElementAttr(t *testing.T) {
	e := &element{snap: snapshot{Tag: "img", Attrs: map[string]string{"alt": ""}, Text: ""}}
	if v, ok := e.Attr("alt"); !ok || v != "" {
		t.Errorf("Attr(alt) = %q, %v; want \"\", true", v, ok)
	}
	if _, ok := e.Attr("src"); ok {
		t.Error("Attr(src) should be absent")
	}
	if e.Tag() != "img" {
		t.Errorf("Tag() = %q", e.Tag())
	}
}
