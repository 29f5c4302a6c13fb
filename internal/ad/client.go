// Package ad discovers SQL Server hosts from Active Directory by
// enumerating MSSQLSvc service principal names over LDAP. The hostnames it
// yields are candidates for SSRP queries; registration in AD does not
// guarantee the browser service is reachable.
package ad

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/go-ldap/ldap/v3"
)

// SPN is one parsed MSSQLSvc service principal name together with the
// account it is registered on.
type SPN struct {
	FullSPN      string
	ServiceClass string
	Hostname     string
	Port         string
	InstanceName string
	AccountName  string
	AccountSID   string
}

// Client handles Active Directory lookups via LDAP.
type Client struct {
	conn             *ldap.Conn
	domain           string
	domainController string
	baseDN           string
	user             string
	password         string
}

// NewClient creates a client for the given domain. The domain controller is
// optional; when empty it is resolved from the domain's LDAP SRV record.
func NewClient(domain, domainController, user, password string) *Client {
	return &Client{
		domain:           domain,
		domainController: domainController,
		user:             user,
		password:         password,
	}
}

// resolveDomainController looks up the domain's LDAP SRV record and picks
// the first advertised domain controller.
func (c *Client) resolveDomainController() (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, addrs, err := net.DefaultResolver.LookupSRV(ctx, "ldap", "tcp", c.domain)
	if err != nil {
		return "", fmt.Errorf("SRV lookup for %s: %w", c.domain, err)
	}
	if len(addrs) == 0 {
		return "", fmt.Errorf("no domain controllers advertised for %s", c.domain)
	}
	return strings.TrimSuffix(addrs[0].Target, "."), nil
}

// Connect establishes and binds an LDAP connection to the domain
// controller, trying LDAPS first and falling back to LDAP with StartTLS.
func (c *Client) Connect() error {
	if c.user == "" || c.password == "" {
		return fmt.Errorf("ldap credentials are required")
	}

	dc := c.domainController
	if dc == "" {
		var err error
		dc, err = c.resolveDomainController()
		if err != nil {
			return fmt.Errorf("resolve domain controller: %w", err)
		}
	}

	serverName := dc
	if !strings.Contains(serverName, ".") && c.domain != "" {
		serverName = fmt.Sprintf("%s.%s", dc, c.domain)
	}

	var attempts []string

	// LDAPS first.
	conn, err := ldap.DialURL(fmt.Sprintf("ldaps://%s:636", dc), ldap.DialWithTLSConfig(&tls.Config{
		ServerName:         serverName,
		InsecureSkipVerify: true, //nolint:gosec // discovery tool binds to any DC
	}))
	if err == nil {
		conn.SetTimeout(30 * time.Second)
		if bindErr := conn.Bind(c.bindDN(), c.password); bindErr == nil {
			c.conn = conn
			c.baseDN = domainToDN(c.domain)
			return nil
		} else {
			attempts = append(attempts, fmt.Sprintf("ldaps:636: %v", bindErr))
			conn.Close()
		}
	} else {
		attempts = append(attempts, fmt.Sprintf("ldaps:636: %v", err))
	}

	// Plain LDAP upgraded with StartTLS.
	conn, err = ldap.DialURL(fmt.Sprintf("ldap://%s:389", dc))
	if err != nil {
		attempts = append(attempts, fmt.Sprintf("ldap:389: %v", err))
		return fmt.Errorf("ldap connect failed: %s", strings.Join(attempts, "; "))
	}
	conn.SetTimeout(30 * time.Second)
	if err := conn.StartTLS(&tls.Config{
		ServerName:         serverName,
		InsecureSkipVerify: true, //nolint:gosec
	}); err != nil {
		attempts = append(attempts, fmt.Sprintf("ldap:389 starttls: %v", err))
		conn.Close()
		return fmt.Errorf("ldap connect failed: %s", strings.Join(attempts, "; "))
	}
	if err := conn.Bind(c.bindDN(), c.password); err != nil {
		attempts = append(attempts, fmt.Sprintf("ldap:389 bind: %v", err))
		conn.Close()
		return fmt.Errorf("ldap connect failed: %s", strings.Join(attempts, "; "))
	}

	c.conn = conn
	c.baseDN = domainToDN(c.domain)
	return nil
}

// bindDN turns a bare account name into a UPN the server can resolve.
func (c *Client) bindDN() string {
	if strings.Contains(c.user, "@") || strings.Contains(c.user, "\\") || strings.Contains(c.user, "=") {
		return c.user
	}
	return fmt.Sprintf("%s@%s", c.user, c.domain)
}

// Close closes the LDAP connection.
func (c *Client) Close() error {
	if c.conn != nil {
		err := c.conn.Close()
		c.conn = nil
		return err
	}
	return nil
}

// EnumerateSQLServerSPNs finds every MSSQLSvc service principal name in the
// domain, paging through large result sets.
func (c *Client) EnumerateSQLServerSPNs() ([]SPN, error) {
	if c.conn == nil {
		if err := c.Connect(); err != nil {
			return nil, err
		}
	}

	searchRequest := ldap.NewSearchRequest(
		c.baseDN,
		ldap.ScopeWholeSubtree,
		ldap.NeverDerefAliases,
		0, 0, false,
		"(servicePrincipalName=MSSQLSvc/*)",
		[]string{"servicePrincipalName", "sAMAccountName", "objectSid"},
		nil,
	)

	var spns []SPN
	pagingControl := ldap.NewControlPaging(1000)
	searchRequest.Controls = append(searchRequest.Controls, pagingControl)

	for {
		result, err := c.conn.Search(searchRequest)
		if err != nil {
			return nil, fmt.Errorf("ldap search failed: %w", err)
		}

		for _, entry := range result.Entries {
			accountName := entry.GetAttributeValue("sAMAccountName")
			accountSID := decodeSID(entry.GetRawAttributeValue("objectSid"))

			for _, raw := range entry.GetAttributeValues("servicePrincipalName") {
				if !strings.HasPrefix(strings.ToUpper(raw), "MSSQLSVC/") {
					continue
				}
				spn := parseSPN(raw)
				spn.AccountName = accountName
				spn.AccountSID = accountSID
				spns = append(spns, spn)
			}
		}

		pagingResult := ldap.FindControl(result.Controls, ldap.ControlTypePaging)
		if pagingResult == nil {
			break
		}
		cookie := pagingResult.(*ldap.ControlPaging).Cookie
		if len(cookie) == 0 {
			break
		}
		pagingControl.SetCookie(cookie)
	}

	return spns, nil
}

// UniqueHosts returns the distinct hostnames of a set of SPNs, in first-seen
// order.
func UniqueHosts(spns []SPN) []string {
	seen := make(map[string]bool)
	var hosts []string
	for _, spn := range spns {
		host := strings.ToLower(spn.Hostname)
		if host == "" || seen[host] {
			continue
		}
		seen[host] = true
		hosts = append(hosts, spn.Hostname)
	}
	return hosts
}

// parseSPN splits an SPN of the form service/host, service/host:port or
// service/host:instance into its components.
func parseSPN(spn string) SPN {
	result := SPN{FullSPN: spn}

	parts := strings.SplitN(spn, "/", 2)
	if len(parts) < 2 {
		return result
	}
	result.ServiceClass = parts[0]
	hostPart := parts[1]

	idx := strings.Index(hostPart, ":")
	if idx == -1 {
		result.Hostname = hostPart
		return result
	}
	result.Hostname = hostPart[:idx]

	// A numeric suffix is a port, anything else is an instance name.
	portOrInstance := hostPart[idx+1:]
	if isDecimal(portOrInstance) {
		result.Port = portOrInstance
	} else {
		result.InstanceName = portOrInstance
	}
	return result
}

func isDecimal(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// domainToDN converts a DNS domain name to its distinguished name form.
func domainToDN(domain string) string {
	parts := strings.Split(domain, ".")
	dnParts := make([]string, 0, len(parts))
	for _, part := range parts {
		dnParts = append(dnParts, fmt.Sprintf("DC=%s", part))
	}
	return strings.Join(dnParts, ",")
}

// decodeSID converts a binary SID to its S-R-I-S form.
func decodeSID(b []byte) string {
	if len(b) < 8 {
		return ""
	}

	revision := b[0]
	subAuthCount := int(b[1])

	// Identifier authority, 6 bytes big-endian.
	var authority uint64
	for i := 2; i < 8; i++ {
		authority = (authority << 8) | uint64(b[i])
	}

	sid := fmt.Sprintf("S-%d-%d", revision, authority)

	// Sub-authorities, 4 bytes each, little-endian.
	for i := 0; i < subAuthCount && 8+i*4+4 <= len(b); i++ {
		subAuth := uint32(b[8+i*4]) |
			uint32(b[8+i*4+1])<<8 |
			uint32(b[8+i*4+2])<<16 |
			uint32(b[8+i*4+3])<<24
		sid += fmt.Sprintf("-%d", subAuth)
	}

	return sid
}
