// Package directory authenticates institutional accounts against LDAP
// and maps their affiliations to roles.
package directory

import (
	"context"
	"crypto/tls"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/go-ldap/ldap/v3"

	"github.com/aclgate/aclgate/pkg/cerr"
)

const dialTimeout = 10 * time.Second

// Client binds to the directory as the logging-in user. No service
// account is involved: a successful bind is the password check.
type Client struct {
	addr       string
	baseDN     string
	dnTemplate string
	startTLS   bool
}

// Profile carries the directory attributes needed to provision a user.
type Profile struct {
	DN           string
	Email        string
	FullName     string
	Affiliations []string
}

// NewClient builds a client for addr (an ldap:// or ldaps:// URL).
// dnTemplate must contain {username} and {institution} placeholders,
// e.g. "uid={username},ou={institution},dc=example,dc=com".
func NewClient(addr, baseDN, dnTemplate string, startTLS bool) *Client {
	return &Client{
		addr:       addr,
		baseDN:     baseDN,
		dnTemplate: dnTemplate,
		startTLS:   startTLS,
	}
}

// Authenticate binds with the templated DN and, on success, reads the
// account's mail, cn and eduPersonAffiliation attributes.
func (c *Client) Authenticate(ctx context.Context, username, institution, password string) (*Profile, error) {
	timeout := dialTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	conn, err := ldap.DialURL(c.addr, ldap.DialWithDialer(&net.Dialer{Timeout: timeout}))
	if err != nil {
		return nil, cerr.NewError(cerr.Unavailable, "directory unavailable", err)
	}
	defer conn.Close()
	conn.SetTimeout(timeout)

	if c.startTLS {
		if err := conn.StartTLS(&tls.Config{ServerName: c.serverName()}); err != nil {
			return nil, cerr.NewError(cerr.Unavailable, "directory unavailable", err)
		}
	}

	dn := c.userDN(username, institution)
	if err := conn.Bind(dn, password); err != nil {
		if ldap.IsErrorWithCode(err, ldap.LDAPResultInvalidCredentials) {
			return nil, cerr.NewError(cerr.Unauthenticated, "invalid credentials", err)
		}
		return nil, cerr.NewError(cerr.Unavailable, "directory unavailable", err)
	}

	req := ldap.NewSearchRequest(
		c.baseDN,
		ldap.ScopeWholeSubtree, ldap.NeverDerefAliases, 0, 0, false,
		"(uid="+ldap.EscapeFilter(username)+")",
		[]string{"mail", "cn", "eduPersonAffiliation"},
		nil,
	)
	res, err := conn.Search(req)
	if err != nil {
		return nil, cerr.NewError(cerr.Unavailable, "directory unavailable", err)
	}
	if len(res.Entries) == 0 {
		return nil, cerr.NewError(cerr.Unauthenticated, "invalid credentials", nil)
	}
	entry := res.Entries[0]
	return &Profile{
		DN:           dn,
		Email:        entry.GetAttributeValue("mail"),
		FullName:     entry.GetAttributeValue("cn"),
		Affiliations: entry.GetAttributeValues("eduPersonAffiliation"),
	}, nil
}

func (c *Client) userDN(username, institution string) string {
	r := strings.NewReplacer(
		"{username}", ldap.EscapeDN(username),
		"{institution}", ldap.EscapeDN(institution),
	)
	return r.Replace(c.dnTemplate)
}

func (c *Client) serverName() string {
	if u, err := url.Parse(c.addr); err == nil {
		return u.Hostname()
	}
	return ""
}
