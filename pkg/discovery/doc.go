// Package discovery provides mDNS advertising for the irrigation controller.
//
// Two services are advertised depending on connectivity state:
//
//   - Setup (_acequia-setup._tcp): announced on the controller's own access
//     point while provisioning is active, so a technician's phone or laptop
//     finds the captive portal without typing an address.
//   - Operational (_acequia._tcp): announced on the joined network once the
//     controller is connected, so farm tooling can locate the device.
//
// The connectivity adapter switches between the two as its state changes.
// TXT records carry device identity (name, model, serial, MAC) in the
// "key=value" form mDNS libraries expect.
package discovery
