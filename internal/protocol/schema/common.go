package schema

func scalar(t FieldType, name string) Field {
	return Field{Name: name, Type: t}
}

func ext(t FieldType, name string) Field {
	return Field{Name: name, Type: t, Extension: true}
}

func array(t FieldType, name string, n int) Field {
	return Field{Name: name, Type: t, ArrayLen: n}
}

// Common returns a registry with a subset of the common dialect: the
// messages a ground station needs to identify and talk to a vehicle.
func Common() *Registry {
	return NewRegistry(commonDescriptors()...)
}

func commonDescriptors() []*Descriptor {
	return []*Descriptor{
		{ID: 0, Name: "HEARTBEAT", CRCExtra: 50, Fields: []Field{
			{Name: "type", Type: TypeUint8, Enum: "MAV_TYPE"},
			{Name: "autopilot", Type: TypeUint8, Enum: "MAV_AUTOPILOT"},
			{Name: "base_mode", Type: TypeUint8, Enum: "MAV_MODE_FLAG"},
			scalar(TypeUint32, "custom_mode"),
			{Name: "system_status", Type: TypeUint8, Enum: "MAV_STATE"},
			scalar(TypeUint8, "mavlink_version"),
		}},
		{ID: 1, Name: "SYS_STATUS", CRCExtra: 124, Fields: []Field{
			scalar(TypeUint32, "onboard_control_sensors_present"),
			scalar(TypeUint32, "onboard_control_sensors_enabled"),
			scalar(TypeUint32, "onboard_control_sensors_health"),
			scalar(TypeUint16, "load"),
			scalar(TypeUint16, "voltage_battery"),
			scalar(TypeInt16, "current_battery"),
			scalar(TypeInt8, "battery_remaining"),
			scalar(TypeUint16, "drop_rate_comm"),
			scalar(TypeUint16, "errors_comm"),
			scalar(TypeUint16, "errors_count1"),
			scalar(TypeUint16, "errors_count2"),
			scalar(TypeUint16, "errors_count3"),
			scalar(TypeUint16, "errors_count4"),
			ext(TypeUint32, "onboard_control_sensors_present_extended"),
			ext(TypeUint32, "onboard_control_sensors_enabled_extended"),
			ext(TypeUint32, "onboard_control_sensors_health_extended"),
		}},
		{ID: 2, Name: "SYSTEM_TIME", CRCExtra: 137, Fields: []Field{
			scalar(TypeUint64, "time_unix_usec"),
			scalar(TypeUint32, "time_boot_ms"),
		}},
		{ID: 4, Name: "PING", CRCExtra: 237, Fields: []Field{
			scalar(TypeUint64, "time_usec"),
			scalar(TypeUint32, "seq"),
			scalar(TypeUint8, "target_system"),
			scalar(TypeUint8, "target_component"),
		}},
		{ID: 20, Name: "PARAM_REQUEST_READ", CRCExtra: 214, Fields: []Field{
			scalar(TypeUint8, "target_system"),
			scalar(TypeUint8, "target_component"),
			array(TypeChar, "param_id", 16),
			scalar(TypeInt16, "param_index"),
		}},
		{ID: 24, Name: "GPS_RAW_INT", CRCExtra: 24, Fields: []Field{
			scalar(TypeUint64, "time_usec"),
			{Name: "fix_type", Type: TypeUint8, Enum: "GPS_FIX_TYPE"},
			scalar(TypeInt32, "lat"),
			scalar(TypeInt32, "lon"),
			scalar(TypeInt32, "alt"),
			scalar(TypeUint16, "eph"),
			scalar(TypeUint16, "epv"),
			scalar(TypeUint16, "vel"),
			scalar(TypeUint16, "cog"),
			scalar(TypeUint8, "satellites_visible"),
			ext(TypeInt32, "alt_ellipsoid"),
			ext(TypeUint32, "h_acc"),
			ext(TypeUint32, "v_acc"),
			ext(TypeUint32, "vel_acc"),
			ext(TypeUint32, "hdg_acc"),
			ext(TypeUint16, "yaw"),
		}},
		{ID: 30, Name: "ATTITUDE", CRCExtra: 39, Fields: []Field{
			scalar(TypeUint32, "time_boot_ms"),
			scalar(TypeFloat, "roll"),
			scalar(TypeFloat, "pitch"),
			scalar(TypeFloat, "yaw"),
			scalar(TypeFloat, "rollspeed"),
			scalar(TypeFloat, "pitchspeed"),
			scalar(TypeFloat, "yawspeed"),
		}},
		{ID: 76, Name: "COMMAND_LONG", CRCExtra: 152, Fields: []Field{
			scalar(TypeUint8, "target_system"),
			scalar(TypeUint8, "target_component"),
			{Name: "command", Type: TypeUint16, Enum: "MAV_CMD"},
			scalar(TypeUint8, "confirmation"),
			scalar(TypeFloat, "param1"),
			scalar(TypeFloat, "param2"),
			scalar(TypeFloat, "param3"),
			scalar(TypeFloat, "param4"),
			scalar(TypeFloat, "param5"),
			scalar(TypeFloat, "param6"),
			scalar(TypeFloat, "param7"),
		}},
		{ID: 77, Name: "COMMAND_ACK", CRCExtra: 143, Fields: []Field{
			{Name: "command", Type: TypeUint16, Enum: "MAV_CMD"},
			{Name: "result", Type: TypeUint8, Enum: "MAV_RESULT"},
			ext(TypeUint8, "progress"),
			ext(TypeInt32, "result_param2"),
			ext(TypeUint8, "target_system"),
			ext(TypeUint8, "target_component"),
		}},
		{ID: 253, Name: "STATUSTEXT", CRCExtra: 83, Fields: []Field{
			{Name: "severity", Type: TypeUint8, Enum: "MAV_SEVERITY"},
			array(TypeChar, "text", 50),
			ext(TypeUint16, "id"),
			ext(TypeUint8, "chunk_seq"),
		}},
	}
}
