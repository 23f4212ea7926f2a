package telemetry

import (
	"net"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
)

// Target is the server a connection string points at.
type Target struct {
	Address string
	Port    int
}

var (
	descriptorHost = regexp.MustCompile(`(?i)\(\s*HOST\s*=\s*([^)\s]+)\s*\)`)
	descriptorPort = regexp.MustCompile(`(?i)\(\s*PORT\s*=\s*(\d+)\s*\)`)
)

// ParseTarget extracts the server address and port from a data-source string. It accepts
// descriptor syntax "(DESCRIPTION=...(HOST=h)(PORT=p)...)", URLs, PostgreSQL key/value
// strings, MySQL DSNs and the simple "host:port/service" form. Credentials are never part
// of the result. Unrecognized input yields the zero Target.
func ParseTarget(driver, dataSource string) Target {
	dataSource = strings.TrimSpace(dataSource)
	if dataSource == "" {
		return Target{}
	}

	if strings.Contains(strings.ToUpper(dataSource), "(DESCRIPTION") {
		return parseDescriptor(dataSource)
	}

	if strings.Contains(dataSource, "://") {
		if normalized, err := pq.ParseURL(dataSource); err == nil {
			return parseKeyValue(normalized)
		}
		if u, err := url.Parse(dataSource); err == nil {
			port, _ := strconv.Atoi(u.Port())
			return Target{Address: u.Hostname(), Port: port}
		}
	}

	if driver == "mysql" {
		if cfg, err := mysql.ParseDSN(dataSource); err == nil {
			return splitHostPort(cfg.Addr)
		}
	}

	if strings.Contains(dataSource, "host=") {
		return parseKeyValue(dataSource)
	}

	return parseEasyConnect(dataSource)
}

func parseDescriptor(dataSource string) Target {
	var target Target
	if match := descriptorHost.FindStringSubmatch(dataSource); match != nil {
		target.Address = match[1]
	}
	if match := descriptorPort.FindStringSubmatch(dataSource); match != nil {
		target.Port, _ = strconv.Atoi(match[1])
	}
	return target
}

func parseKeyValue(dataSource string) Target {
	var target Target
	for _, field := range strings.Fields(dataSource) {
		key, value, ok := strings.Cut(field, "=")
		if !ok {
			continue
		}
		value = strings.Trim(value, "'")
		switch key {
		case "host":
			target.Address = value
		case "port":
			target.Port, _ = strconv.Atoi(value)
		}
	}
	return target
}

// parseEasyConnect handles "[user[/password]@]host[:port][/service]".
func parseEasyConnect(dataSource string) Target {
	if at := strings.LastIndex(dataSource, "@"); at >= 0 {
		dataSource = dataSource[at+1:]
	}
	dataSource = strings.TrimPrefix(dataSource, "//")
	if slash := strings.Index(dataSource, "/"); slash >= 0 {
		dataSource = dataSource[:slash]
	}
	return splitHostPort(dataSource)
}

func splitHostPort(hostPort string) Target {
	host, port, err := net.SplitHostPort(hostPort)
	if err != nil {
		return Target{Address: hostPort}
	}
	p, _ := strconv.Atoi(port)
	return Target{Address: host, Port: p}
}
