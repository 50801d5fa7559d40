// Package capability moves capability messages between voice agents and
// front-end applications.
//
// A capability (GuiMetadata, PhoneControl, Navigation) is a fixed vocabulary of
// upstream actions, published by voice agents for applications, and downstream
// actions, published by applications for voice agents. Each action is a topic on
// the broker named after the bare action.
//
// Publishing some upstream actions launches the application that handles them,
// for example a dial request brings up the phone application.
package capability
