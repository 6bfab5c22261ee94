// Package sprite turns an animated image into a Scratch sprite inside a
// project archive.
//
// The Assembler decodes every frame of the animation, content-addresses each
// frame by the MD5 of its decoded pixel buffer, builds one costume per frame
// from a Template, stores the frames as PNG assets, and appends the finished
// sprite to the project manifest through an sb3 rewrite session. Rotation
// centers follow a 3x3 anchor grid (see Anchor).
//
// The procedure is sequential. Concurrent runs against the same archive are
// serialized by an advisory lock and fail fast rather than wait.
package sprite
