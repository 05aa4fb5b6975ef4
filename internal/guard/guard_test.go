package guard

import (
	"testing"

	"github.com/starford/mindatlas/internal/authgate"
	"github.com/starford/mindatlas/internal/rbac"
)

func TestGuards(t *testing.T) {
	p := DefaultPaths()
	anon := authgate.Identity{}
	admin := authgate.Identity{Authenticated: true, Role: rbac.RoleAdmin, Email: "root@example.com"}
	user := authgate.Identity{Authenticated: true, Role: rbac.RoleUser, Email: "ada@example.com"}
	odd := authgate.Identity{Authenticated: true, Role: rbac.RoleUnknown, Email: "odd@example.com"}

	cases := []struct {
		name  string
		guard Func
		id    authgate.Identity
		want  Decision
	}{
		{"user area anonymous", UserArea, anon, Decision{Outcome: Redirect, Location: "/login"}},
		{"user area admin", UserArea, admin, Decision{Outcome: Redirect, Location: "/admin"}},
		{"user area user", UserArea, user, Decision{Outcome: Render}},
		{"user area unknown role", UserArea, odd, Decision{Outcome: Deny}},
		{"admin area anonymous", AdminArea, anon, Decision{Outcome: Redirect, Location: "/login"}},
		{"admin area admin", AdminArea, admin, Decision{Outcome: Render}},
		{"admin area user", AdminArea, user, Decision{Outcome: Deny}},
		{"admin area unknown role", AdminArea, odd, Decision{Outcome: Deny}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.guard(tc.id, p); got != tc.want {
				t.Errorf("got %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestGuardsIgnoreLoadingFlag(t *testing.T) {
	id := authgate.Identity{Authenticated: true, Role: rbac.RoleUser, Loading: true}
	if got := UserArea(id, DefaultPaths()).Outcome; got != Render {
		t.Errorf("outcome = %v, want render", got)
	}
}

func TestOutcomeString(t *testing.T) {
	for o, want := range map[Outcome]string{Render: "render", Redirect: "redirect", Deny: "deny"} {
		if o.String() != want {
			t.Errorf("%d.String() = %q, want %q", int(o), o.String(), want)
		}
	}
}
