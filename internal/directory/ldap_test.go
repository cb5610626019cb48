package directory

import "testing"

func TestUserDN(t *testing.T) {
	c := NewClient("ldap://ldap.example.com:389", "dc=example,dc=com",
		"uid={username},ou={institution},dc=example,dc=com", false)

	got := c.userDN("alice", "univ")
	want := "uid=alice,ou=univ,dc=example,dc=com"
	if got != want {
		t.Errorf("userDN = %q, want %q", got, want)
	}

	// DN metacharacters in the input must not restructure the DN.
	got = c.userDN("alice,ou=admin", "univ")
	if got == "uid=alice,ou=admin,ou=univ,dc=example,dc=com" {
		t.Errorf("DN injection was not escaped: %q", got)
	}
}

func TestServerName(t *testing.T) {
	cases := []struct {
		addr string
		want string
	}{
		{"ldap://ldap.example.com:389", "ldap.example.com"},
		{"ldaps://ldap.example.com", "ldap.example.com"},
	}
	for _, c := range cases {
		client := NewClient(c.addr, "", "", true)
		if got := client.serverName(); got != c.want {
			t.Errorf("serverName(%q) = %q, want %q", c.addr, got, c.want)
		}
	}
}
