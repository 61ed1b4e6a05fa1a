package containerizer

import "net"

var interfaceAddrs = net.InterfaceAddrs

// HostIP returns the first non-loopback IPv4 address of the workstation,
// or 127.0.0.1 when there is none.
func HostIP() string {
	addrs, err := interfaceAddrs()
	if err != nil {
		return "127.0.0.1"
	}
	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if !ok || ipNet.IP.IsLoopback() {
			continue
		}
		if ip4 := ipNet.IP.To4(); ip4 != nil {
			return ip4.String()
		}
	}
	return "127.0.0.1"
}
