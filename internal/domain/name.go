package domain

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// DefaultRegistryHost is assumed when a name carries no host.
	DefaultRegistryHost = "localhost"
	// DefaultRegistryPort is the naming-service port assumed when a name carries no port.
	DefaultRegistryPort = 1099
)

// NameInfo is a parsed remote name: "host:port/network.variable" with every part
// except the network (or variable) optional.
type NameInfo struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Network  string `json:"network,omitempty"`
	Variable string `json:"variable,omitempty"`
}

// ParseNetworkName parses a network name. A bare name, without a slash, takes the given
// default host and port; "host/name" takes the default registry port.
func ParseNetworkName(name, defaultHost string, defaultPort int) (NameInfo, error) {
	return parseName(name, defaultHost, defaultPort, false)
}

// ParseVariableName parses a variable name. A bare name without a period is a variable
// of no particular network.
func ParseVariableName(name, defaultHost string, defaultPort int) (NameInfo, error) {
	return parseName(name, defaultHost, defaultPort, true)
}

func parseName(name, defaultHost string, defaultPort int, isVariable bool) (NameInfo, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return NameInfo{}, fmt.Errorf("empty name")
	}
	if defaultHost == "" {
		defaultHost = DefaultRegistryHost
	}
	if defaultPort == 0 {
		defaultPort = DefaultRegistryPort
	}

	info := NameInfo{Host: defaultHost, Port: defaultPort}
	rest := name

	if slash := strings.Index(name, "/"); slash >= 0 {
		hostPart := name[:slash]
		rest = name[slash+1:]
		info.Port = DefaultRegistryPort
		if colon := strings.Index(hostPart, ":"); colon >= 0 {
			port, err := strconv.Atoi(hostPart[colon+1:])
			if err != nil || port <= 0 || port > 65535 {
				return NameInfo{}, fmt.Errorf("invalid port in %q", name)
			}
			info.Port = port
			hostPart = hostPart[:colon]
		}
		if hostPart == "" {
			return NameInfo{}, fmt.Errorf("empty host in %q", name)
		}
		info.Host = hostPart

		if period := strings.Index(rest, "."); period >= 0 {
			info.Network = rest[:period]
			info.Variable = rest[period+1:]
		} else {
			info.Network = rest
		}
	} else if period := strings.Index(rest, "."); period >= 0 {
		info.Network = rest[:period]
		info.Variable = rest[period+1:]
	} else if isVariable {
		info.Variable = rest
	} else {
		info.Network = rest
	}

	if info.Network == "" && !isVariable {
		return NameInfo{}, fmt.Errorf("no network name in %q", name)
	}
	if isVariable && info.Variable == "" {
		return NameInfo{}, fmt.Errorf("no variable name in %q", name)
	}
	return info, nil
}

// Address returns "host:port".
func (n NameInfo) Address() string {
	return n.Host + ":" + strconv.Itoa(n.Port)
}

// NetworkKey returns the canonical "host:port/network" form.
func (n NameInfo) NetworkKey() string {
	return n.Address() + "/" + n.Network
}

func (n NameInfo) String() string {
	s := n.NetworkKey()
	if n.Variable != "" {
		s += "." + n.Variable
	}
	return s
}
