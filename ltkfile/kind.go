// Package ltkfile identifies the payload types found inside League archives,
// either from a file extension or from the first few bytes of content.
package ltkfile

import "strings"

// Kind is a known League file type (animation, mapgeo, bin, ...).
type Kind int

const (
	Unknown Kind = iota
	Animation
	Jpeg
	LightGrid
	LuaObj
	MapGeometry
	Png
	Preload
	PropertyBin
	PropertyBinOverride
	RiotStringTable
	SimpleSkin
	Skeleton
	StaticMeshASCII
	StaticMeshBinary
	SVG
	Texture
	TextureDDS
	TGA
	WorldGeometry
	WwiseBank
	WwisePackage
)

// String returns the kind name for logs and errors.
func (k Kind) String() string {
	switch k {
	case Animation:
		return "animation"
	case Jpeg:
		return "jpeg"
	case LightGrid:
		return "light-grid"
	case LuaObj:
		return "luaobj"
	case MapGeometry:
		return "map-geometry"
	case Png:
		return "png"
	case Preload:
		return "preload"
	case PropertyBin:
		return "property-bin"
	case PropertyBinOverride:
		return "property-bin-override"
	case RiotStringTable:
		return "string-table"
	case SimpleSkin:
		return "simple-skin"
	case Skeleton:
		return "skeleton"
	case StaticMeshASCII:
		return "static-mesh-ascii"
	case StaticMeshBinary:
		return "static-mesh-binary"
	case SVG:
		return "svg"
	case Texture:
		return "texture"
	case TextureDDS:
		return "texture-dds"
	case TGA:
		return "tga"
	case WorldGeometry:
		return "world-geometry"
	case WwiseBank:
		return "wwise-bank"
	case WwisePackage:
		return "wwise-package"
	}
	return "unknown"
}

// Extension returns the canonical extension for the kind ("anm", "mapgeo",
// "bin", ...), or "" for Unknown.
func (k Kind) Extension() string {
	switch k {
	case Animation:
		return "anm"
	case Jpeg:
		return "jpg"
	case LightGrid:
		return "lightgrid"
	case LuaObj:
		return "luaobj"
	case MapGeometry:
		return "mapgeo"
	case Png:
		return "png"
	case Preload:
		return "preload"
	case PropertyBin, PropertyBinOverride:
		return "bin"
	case RiotStringTable:
		return "stringtable"
	case SimpleSkin:
		return "skn"
	case Skeleton:
		return "skl"
	case StaticMeshASCII:
		return "sco"
	case StaticMeshBinary:
		return "scb"
	case SVG:
		return "svg"
	case Texture:
		return "tex"
	case TextureDDS:
		return "dds"
	case TGA:
		return "tga"
	case WorldGeometry:
		return "wgeo"
	case WwiseBank:
		return "bnk"
	case WwisePackage:
		return "wpk"
	}
	return ""
}

// FromExtension infers the kind from an extension. A leading '.' is accepted.
// The lookup is case-sensitive on the canonical lowercase set.
func FromExtension(ext string) Kind {
	ext = strings.TrimPrefix(ext, ".")
	switch ext {
	case "anm":
		return Animation
	case "bin":
		return PropertyBin
	case "bnk":
		return WwiseBank
	case "dds":
		return TextureDDS
	case "jpg":
		return Jpeg
	case "lightgrid":
		return LightGrid
	case "luaobj":
		return LuaObj
	case "mapgeo":
		return MapGeometry
	case "png":
		return Png
	case "preload":
		return Preload
	case "scb":
		return StaticMeshBinary
	case "sco":
		return StaticMeshASCII
	case "skl":
		return Skeleton
	case "skn":
		return SimpleSkin
	case "stringtable":
		return RiotStringTable
	case "svg":
		return SVG
	case "tex":
		return Texture
	case "tga":
		return TGA
	case "wgeo":
		return WorldGeometry
	case "wpk":
		return WwisePackage
	}
	return Unknown
}

// AlreadyCompressed reports whether the format carries its own compression,
// in which case recompressing it inside an archive is wasted work.
func (k Kind) AlreadyCompressed() bool {
	switch k {
	case Jpeg, Png, TextureDDS, Texture, WwiseBank, WwisePackage:
		return true
	}
	return false
}
