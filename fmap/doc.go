/*
Memory MAPped block region

The fmap package keeps a device's raw media in an anonymous memory
mapping. Nothing backs the mapping on disk; it lives and dies with the
process. Access is block oriented: callers name a physical block and
get a view of exactly that block. Outstanding views are counted so the
region cannot be unmapped while someone still holds one.

*/
package fmap
