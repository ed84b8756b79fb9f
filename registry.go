package vr

import "github.com/gogpu/vr/tracking"

// DeviceByType returns the connected device of type t with the lowest slot.
func (c *Context) DeviceByType(t DeviceType) (*Device, bool) {
	for _, d := range c.devices {
		if d != nil && d.typ == t {
			return d, true
		}
	}
	return nil, false
}

// DevicesByType returns all connected devices of type t in slot order.
func (c *Context) DevicesByType(t DeviceType) []*Device {
	var out []*Device
	for _, d := range c.devices {
		if d != nil && d.typ == t {
			out = append(out, d)
		}
	}
	return out
}

// Devices returns all connected devices in slot order.
func (c *Context) Devices() []*Device {
	var out []*Device
	for _, d := range c.devices {
		if d != nil {
			out = append(out, d)
		}
	}
	return out
}

// DeviceByRole returns the controller currently assigned role. Roles are
// advisory; see Role.
func (c *Context) DeviceByRole(role Role) (*Device, bool) {
	for _, d := range c.devices {
		if d != nil && d.typ == DeviceController && d.role == role {
			return d, true
		}
	}
	return nil, false
}

// Device returns the device in slot. ok is false for empty or
// out-of-range slots.
func (c *Context) Device(slot int) (d *Device, ok bool) {
	if slot < 0 || slot >= MaxDevices {
		return nil, false
	}
	d = c.devices[slot]
	return d, d != nil
}

// DevicePose returns the latest pose of slot.
func (c *Context) DevicePose(slot int) (DevicePose, error) {
	if slot < 0 || slot >= MaxDevices {
		return DevicePose{}, &IndexError{Kind: "slot", Index: slot, Limit: MaxDevices}
	}
	return c.poses[slot], nil
}

// connectDevice registers the device in slot and notifies listeners.
// class and role come from the activation event; ClassInvalid makes it ask
// the runtime instead. Slots whose class is not modeled, or that are
// already registered, are ignored.
func (c *Context) connectDevice(slot int, class tracking.DeviceClass, trole tracking.ControllerRole) {
	if c.devices[slot] != nil {
		return
	}
	if class == tracking.ClassInvalid {
		class = c.rt.DeviceClass(slot)
		trole = c.rt.ControllerRole(slot)
	}
	typ := deviceTypeFromClass(class)
	if typ == DeviceUnknown {
		c.logger().Debug("ignoring unmodeled device", "slot", slot)
		return
	}
	role := RoleUnknown
	if typ == DeviceController {
		role = roleFromTracking(trole)
	}
	d := &Device{ctx: c, slot: slot, typ: typ, role: role}
	c.devices[slot] = d
	c.logger().Info("device connected", "slot", slot, "type", typ, "role", role)
	c.dispatch(DeviceEvent{Kind: EventConnected, Device: d})
}

// disconnectDevice notifies listeners, then clears the slot.
func (c *Context) disconnectDevice(slot int) {
	d := c.devices[slot]
	if d == nil {
		return
	}
	c.dispatch(DeviceEvent{Kind: EventDisconnected, Device: d})
	c.devices[slot] = nil
	c.logger().Info("device disconnected", "slot", slot, "type", d.typ)
}
