package testhive

import (
	"encoding/binary"
	"fmt"

	"github.com/joshuapare/hivetrace/internal/format"
	"github.com/joshuapare/hivetrace/internal/textenc"
	"github.com/joshuapare/hivetrace/pkg/types"
)

// Fixture constants for the SYSTEM-style hive returned by System.
const (
	FixtureRootName = `CsiTool-CreateHive-{00000000-0000-0000-0000-000000000000}`

	// FixtureKeyCount is the number of keys a full walk emits, root included.
	FixtureKeyCount = 24

	// FixtureServiceCount is the number of keys directly under Services.
	FixtureServiceCount = 12

	// FixtureShimcacheEntries is the number of 10ts records in AppCompatCache.
	FixtureShimcacheEntries = 128

	FixtureAppCompatPath = `ControlSet001\Control\Session Manager\AppCompatCache`
	FixtureServicesPath  = `ControlSet001\Services`
)

// FixtureService describes one service key in the fixture.
type FixtureService struct {
	Name        string
	ImagePath   string
	DisplayName string
	Start       uint32
	Type        uint32
	Parameters  bool
}

// FixtureServices lists the services in on-disk order.
var FixtureServices = []FixtureService{
	{"ACPI", `System32\drivers\ACPI.sys`, "Microsoft ACPI Driver", 0, 1, false},
	{"AFD", `\SystemRoot\system32\drivers\afd.sys`, "Ancillary Function Driver for Winsock", 1, 1, true},
	{"BFE", `%SystemRoot%\system32\svchost.exe -k LocalServiceNoNetworkFirewall -p`, "Base Filtering Engine", 2, 32, true},
	{"Dhcp", `%SystemRoot%\system32\svchost.exe -k LocalServiceNetworkRestricted -p`, "DHCP Client", 2, 32, false},
	{"Dnscache", `%SystemRoot%\system32\svchost.exe -k NetworkService -p`, "DNS Client", 2, 32, false},
	{"EventLog", `%SystemRoot%\System32\svchost.exe -k LocalServiceNetworkRestricted -p`, "Windows Event Log", 2, 32, true},
	{"LanmanServer", `%SystemRoot%\system32\svchost.exe -k netsvcs -p`, "Server", 2, 32, false},
	{"mpssvc", `%SystemRoot%\system32\svchost.exe -k LocalServiceNoNetworkFirewall -p`, "Windows Defender Firewall", 2, 32, false},
	{"PSEXESVC", `%SystemRoot%\PSEXESVC.exe`, "PSEXESVC", 3, 16, false},
	{"Schedule", `%systemroot%\system32\svchost.exe -k netsvcs -p`, "Task Scheduler", 2, 32, false},
	{"Tcpip", `System32\drivers\tcpip.sys`, "TCP/IP Protocol Driver", 0, 1, false},
	{"W32Time", `%SystemRoot%\system32\svchost.exe -k LocalService`, "Windows Time", 3, 32, false},
}

// System builds a small SYSTEM-style hive: one control set with a services
// tree stored under an ri list, a Session Manager AppCompatCache value large
// enough to be stored as db big data, and the Select key that names the
// current control set.
func System() *Image {
	b := New(FixtureRootName)
	root := b.Root()

	cs := root.AddKey("ControlSet001")
	control := cs.AddKey("Control")
	control.Path(`Session Manager\AppCompatCache`).
		AddValue("AppCompatCache", types.REG_BINARY, AppCompatCache(FixtureShimcacheEntries)).
		AddValue("CacheMainSdb", types.REG_BINARY, make([]byte, 64))

	services := cs.AddKey("Services").ListKind(format.ListRI)
	for _, svc := range FixtureServices {
		k := services.AddKey(svc.Name).
			AddValue("ImagePath", types.REG_EXPAND_SZ, SZ(svc.ImagePath)).
			AddValue("DisplayName", types.REG_SZ, SZ(svc.DisplayName)).
			AddValue("Start", types.REG_DWORD, DWORD(svc.Start)).
			AddValue("Type", types.REG_DWORD, DWORD(svc.Type))
		if svc.Parameters {
			k.AddKey("Parameters").
				AddValue("ServiceDll", types.REG_EXPAND_SZ, SZ(`%SystemRoot%\system32\`+svc.Name+".dll"))
		}
	}

	root.AddKey("MountedDevices").
		AddValue(`\DosDevices\C:`, types.REG_BINARY, []byte{0x4d, 0x1a, 0x7c, 0x3e, 0, 0, 0x10, 0, 0, 0, 0, 0})

	root.AddKey("Select").
		AddValue("Current", types.REG_DWORD, DWORD(1)).
		AddValue("Default", types.REG_DWORD, DWORD(1)).
		AddValue("Failed", types.REG_DWORD, DWORD(0)).
		AddValue("LastKnownGood", types.REG_DWORD, DWORD(1))

	root.AddKey("Setup").
		AddValue("SystemSetupInProgress", types.REG_DWORD, DWORD(0)).
		AddValue("CmdLine", types.REG_SZ, SZ(`setup -newsetup`))

	return b.Build()
}

// AppCompatCache encodes a Windows 10 style cache: a 0x34 byte header
// followed by n "10ts" records.
func AppCompatCache(n int) []byte {
	const headerSize = 0x34
	out := make([]byte, headerSize)
	binary.LittleEndian.PutUint32(out, headerSize)
	binary.LittleEndian.PutUint32(out[0x18:], uint32(n))

	ft := format.TimeToFiletime(DefaultTime)
	for i := range n {
		path := textenc.EncodeUTF16(fmt.Sprintf(`C:\Program Files\Vendor%02d\Application Suite\bin\tool%03d.exe`, i%17, i))
		data := []byte{byte(i), 0, 0, 0}

		rec := make([]byte, 0, 12+2+len(path)+8+4+len(data))
		rec = append(rec, "10ts"...)
		rec = binary.LittleEndian.AppendUint32(rec, 0)
		body := uint32(2 + len(path) + 8 + 4 + len(data))
		rec = binary.LittleEndian.AppendUint32(rec, body)
		rec = binary.LittleEndian.AppendUint16(rec, uint16(len(path)))
		rec = append(rec, path...)
		rec = binary.LittleEndian.AppendUint64(rec, ft)
		rec = binary.LittleEndian.AppendUint32(rec, uint32(len(data)))
		rec = append(rec, data...)
		out = append(out, rec...)
	}
	return out
}
